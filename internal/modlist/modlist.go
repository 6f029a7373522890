// Package modlist reads the list of mods to install.
//
// A mod list is an array of {id, name} records in JSON or YAML:
//
//	[
//	  {"id": "818773962", "name": "HugsLib"},
//	  {"id": 2009463077, "name": "Harmony"}
//	]
//
// Ids may be written as strings or numbers.
package modlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/rimrust/internal/model"
	"gopkg.in/yaml.v3"
)

// Format is a mod list encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the format from the file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the mod list at path.
func Load(path string) ([]model.Mod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	mods, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mods, nil
}

// Parse decodes a mod list.
func Parse(data []byte, format Format) ([]model.Mod, error) {
	var entries []entry

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decoding yaml mod list: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decoding json mod list: %w", err)
		}
	}

	mods := make([]model.Mod, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(string(e.ID))
		if id == "" {
			return nil, fmt.Errorf("entry %d (%q): missing id", i, e.Name)
		}
		mods = append(mods, model.Mod{ID: id, Name: e.Name})
	}

	return mods, nil
}

type entry struct {
	ID   flexID `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// flexID accepts both "123" and 123.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", data)
	}
	*f = flexID(n.String())
	return nil
}

func (f *flexID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", node.Line)
	}
	*f = flexID(node.Value)
	return nil
}
