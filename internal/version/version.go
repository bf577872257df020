// Package version carries build identity shared by the CLI and the HTTP
// surface.
package version

// Version is overridden at release time via -ldflags.
var Version = "1.4.0-dev"

// Service is the canonical service name used in banners and user agents.
const Service = "storeappx"
