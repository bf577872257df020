package catalog

import (
	"strings"

	"github.com/schrebra/storeappx/internal/arch"
)

// Class identifies the package container format of a candidate link.
type Class string

const (
	ClassAppx       Class = "appx"
	ClassAppxBundle Class = "appxbundle"
	ClassMsix       Class = "msix"
	ClassMsixBundle Class = "msixbundle"
)

// CandidateLink is one downloadable package produced by a catalog lookup.
type CandidateLink struct {
	// URL is the download location from the anchor href.
	URL string `json:"url"`
	// Name is the display file name carried by the anchor text (or, when
	// the text carries no extension, the base of the href path).
	Name string `json:"name"`
	// Arch is the architecture token encoded in the name.
	Arch arch.Token `json:"architecture"`
	// Ext classifies the container format.
	Ext Class `json:"class"`
}

// ClassifyName returns the container class encoded in a file name.
// Bundle suffixes are checked before their plain counterparts because
// ".appx" and ".msix" are substrings of the bundle extensions; a bundle
// must never be misclassified or double-excluded by the shorter suffix.
func ClassifyName(name string) (Class, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(lower, ".appxbundle"):
		return ClassAppxBundle, true
	case strings.HasSuffix(lower, ".appx"):
		return ClassAppx, true
	case strings.HasSuffix(lower, ".msixbundle"):
		return ClassMsixBundle, true
	case strings.HasSuffix(lower, ".msix"):
		return ClassMsix, true
	default:
		return "", false
	}
}

// Extensions lists the recognized package file extensions in install order:
// plain packages before bundles.
func Extensions() []string {
	return []string{".appx", ".msix", ".appxbundle", ".msixbundle"}
}

// dedupeLinks removes candidates with duplicate URLs while preserving
// first-seen order.
func dedupeLinks(links []CandidateLink) []CandidateLink {
	seen := make(map[string]bool, len(links))
	result := make([]CandidateLink, 0, len(links))
	for _, link := range links {
		if !seen[link.URL] {
			seen[link.URL] = true
			result = append(result, link)
		}
	}
	return result
}
