package catalog

import "github.com/schrebra/storeappx/internal/arch"

// SelectArchitecture reduces candidates to those applicable to the
// requested token. Auto is resolved against host first. Neutral links are
// always retained, and input order is preserved.
func SelectArchitecture(candidates []CandidateLink, token, host arch.Token) []CandidateLink {
	pattern := arch.Normalize(token, host)
	selected := make([]CandidateLink, 0, len(candidates))
	for _, candidate := range candidates {
		if arch.Matches(candidate.Arch, pattern) {
			selected = append(selected, candidate)
		}
	}
	return selected
}
