// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so the CLI progress display owns stdout.
// An additional file path can be appended to OutputPaths to keep a
// per-session download log next to the destination directory.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Resolving catalog reference", zap.String("target", "Microsoft.Paint"))
//	logger.Error("Probe failed", zap.Error(err))
package logging
