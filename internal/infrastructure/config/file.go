package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/schrebra/storeappx/internal/shared/paths"
)

// Path returns the config file location (~/.config/storeappx/config.toml).
func Path() (string, error) {
	return paths.ConfigFile()
}

// loadFile overlays the config file onto cfg. A missing file or unresolvable
// home directory is not an error; a malformed file is.
func loadFile(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
