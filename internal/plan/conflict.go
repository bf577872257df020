package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveCollision returns a collision-free destination path. A path that
// does not exist is returned unchanged; otherwise "(n)" is inserted before
// the extension, n starting at 1 and incrementing until an unused path is
// found. Existence is re-checked on every candidate because multiple items
// in one planning pass may share a base name.
func ResolveCollision(desired string) string {
	return resolveWithReserved(desired, nil)
}

// resolveWithReserved behaves like ResolveCollision but also treats paths
// already claimed by the current planning pass as taken, so two candidates
// sharing a remote name never plan the same destination.
func resolveWithReserved(desired string, reserved map[string]bool) string {
	if !exists(desired) && !reserved[desired] {
		return desired
	}
	ext := filepath.Ext(desired)
	stem := strings.TrimSuffix(desired, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, n, ext)
		if !exists(candidate) && !reserved[candidate] {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
