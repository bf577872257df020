// Package apps provides the catalog of known applications: a built-in
// list compiled into the binary, optionally extended or overridden by a
// user file next to the configuration.
package apps

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/schrebra/storeappx/internal/shared/paths"
)

//go:embed apps.yaml
var builtinYAML []byte

// App is one catalog entry the downloader can resolve by name.
type App struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Reference string `yaml:"reference" json:"reference"`
	Category  string `yaml:"category,omitempty" json:"category,omitempty"`
}

type catalogFile struct {
	Apps []App `yaml:"apps"`
}

// Builtin returns the compiled-in application list.
func Builtin() []App {
	list, err := parse(builtinYAML)
	if err != nil {
		// The embedded file ships with the binary; a parse failure is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded app catalog is invalid: %v", err))
	}
	return list
}

// UserPath returns the location of the user's extension file.
func UserPath() (string, error) {
	return paths.UserCatalog()
}

// Load merges the built-in list with the user file at path. User entries
// replace built-ins with the same id and otherwise append, preserving
// file order. A missing user file is not an error.
func Load(path string) ([]App, error) {
	merged := Builtin()
	if path == "" {
		return merged, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return merged, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read app catalog %q: %w", path, err)
	}
	user, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse app catalog %q: %w", path, err)
	}

	index := make(map[string]int, len(merged))
	for i, app := range merged {
		index[strings.ToLower(app.ID)] = i
	}
	for _, app := range user {
		if i, ok := index[strings.ToLower(app.ID)]; ok {
			merged[i] = app
			continue
		}
		index[strings.ToLower(app.ID)] = len(merged)
		merged = append(merged, app)
	}
	return merged, nil
}

// Find looks an application up by id or, failing that, by exact name.
// Both comparisons ignore case.
func Find(list []App, key string) (App, bool) {
	needle := strings.ToLower(strings.TrimSpace(key))
	for _, app := range list {
		if strings.ToLower(app.ID) == needle {
			return app, true
		}
	}
	for _, app := range list {
		if strings.ToLower(app.Name) == needle {
			return app, true
		}
	}
	return App{}, false
}

func parse(data []byte) ([]App, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	for i, app := range file.Apps {
		if app.ID == "" || app.Name == "" || app.Reference == "" {
			return nil, fmt.Errorf("entry %d is missing id, name, or reference", i)
		}
	}
	return file.Apps, nil
}
