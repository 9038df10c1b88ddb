package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Path: filePath}
}

// Feed decodes the whole file into target.
func (t TomlFeeder) Feed(target interface{}) error {
	if _, err := toml.DecodeFile(t.Path, target); err != nil {
		return fmt.Errorf("failed to read toml %s: %w", t.Path, err)
	}
	return nil
}

// FeedKey reads a TOML file and extracts a specific top-level key
func (t TomlFeeder) FeedKey(key string, target interface{}) error {
	var allData map[string]interface{}
	if err := t.Feed(&allData); err != nil {
		return err
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	// Tables can only be encoded at the top level, so wrap the value.
	wrapped := map[string]interface{}{key: value}
	valueBytes, err := toml.Marshal(wrapped)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var out map[string]toml.Primitive
	md, err := toml.Decode(string(valueBytes), &out)
	if err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	if err := md.PrimitiveDecode(out[key], target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}
