// Package arch models the package architecture tokens used to select
// which store package variants apply to a machine.
package arch

import (
	"fmt"
	"runtime"
	"strings"
)

// Token identifies a package architecture selection.
type Token string

const (
	// Auto resolves to the host's native token at execution time.
	Auto    Token = "auto"
	Neutral Token = "neutral"
	X64     Token = "x64"
	X86     Token = "x86"
	Arm     Token = "arm"
)

// Unknown marks a link whose name encodes no recognizable architecture.
const Unknown Token = ""

// vendorNames maps the architecture spellings seen in package file names,
// host identifiers, and user input onto tokens. IA64 is folded into the
// x64 class the same way AMD64 is.
var vendorNames = map[string]Token{
	"auto":    Auto,
	"neutral": Neutral,
	"x64":     X64,
	"amd64":   X64,
	"x86_64":  X64,
	"ia64":    X64,
	"x86":     X86,
	"i386":    X86,
	"386":     X86,
	"arm":     Arm,
	"arm64":   Arm,
	"aarch64": Arm,
}

// Parse converts user or config input into a Token. Empty input selects
// Auto.
func Parse(s string) (Token, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return Auto, nil
	}
	if tok, ok := vendorNames[trimmed]; ok {
		return tok, nil
	}
	return Unknown, fmt.Errorf("unrecognized architecture %q (expected auto, neutral, x64, x86, or arm)", s)
}

// Detect returns the host's native token. Hosts outside the mapping get
// Neutral so only architecture-neutral packages are selected for them.
func Detect() Token {
	switch runtime.GOARCH {
	case "amd64":
		return X64
	case "386":
		return X86
	case "arm", "arm64":
		return Arm
	default:
		return Neutral
	}
}

// Normalize resolves Auto against the host token; every other token is
// already concrete.
func Normalize(tok, host Token) Token {
	if tok == Auto {
		return host
	}
	return tok
}

// Classify extracts the architecture token encoded in a package file name.
// Store package names delimit the architecture segment with underscores,
// e.g. "Microsoft.VCLibs.140.00_14.0.30704.0_x64__8wekyb3d8bbwe.appx".
func Classify(name string) Token {
	segments := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '.' || r == '-' || r == '/'
	})
	for _, segment := range segments {
		if tok, ok := vendorNames[segment]; ok && tok != Auto {
			return tok
		}
	}
	return Unknown
}

// Matches reports whether a link carrying linkTok satisfies the requested
// pattern. Neutral links always match; a neutral package must remain
// available as a dependency of an architecture-specific one.
func Matches(linkTok, pattern Token) bool {
	if linkTok == Neutral {
		return true
	}
	return linkTok == pattern
}
