// Package paths centralizes where storeappx keeps its files on the
// local machine. Config surfaces and the app catalog ask here instead
// of resolving the home directory themselves.
package paths

import (
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// dirName is the per-user directory name used under both ~/.config and
// ~/Downloads.
const dirName = "storeappx"

// ConfigDir returns the per-user configuration directory
// (~/.config/storeappx).
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", dirName), nil
}

// ConfigFile returns the TOML configuration file location.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// UserCatalog returns the user's app catalog extension file location.
func UserCatalog() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "apps.yaml"), nil
}

// DownloadRoot returns the default destination for downloaded packages
// (~/Downloads/storeappx). Without a resolvable home directory it falls
// back to a directory relative to the working directory.
func DownloadRoot() string {
	home, err := homedir.Dir()
	if err != nil {
		return "storeappx-downloads"
	}
	return filepath.Join(home, "Downloads", dirName)
}
