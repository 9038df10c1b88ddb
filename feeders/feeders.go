// Package feeders provides configuration feeders that populate a hookbus
// Config from YAML, TOML, and JSON files and from environment variables.
package feeders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder populates target, a pointer to a configuration struct.
type Feeder interface {
	Feed(target interface{}) error
}

// ForPath returns the file feeder matching path's extension:
// .yaml/.yml, .toml, or .json.
func ForPath(path string) (Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	case ".json":
		return NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}
