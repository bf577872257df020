// Package id generates the identifiers that name runs and requests.
//
// Run identifiers travel far: they key the coordinator's run registry,
// name report files on disk, and appear in API routes and console
// output. A single generation point keeps the format uniform.
package id

import "github.com/google/uuid"

// NewRun returns a fresh identifier for a download run.
func NewRun() string {
	return uuid.NewString()
}

// NewRequest returns a fresh identifier for an API request.
func NewRequest() string {
	return uuid.NewString()
}

// Short returns the leading segment of an identifier, enough to tell
// runs apart in filenames and console output without the full UUID.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
