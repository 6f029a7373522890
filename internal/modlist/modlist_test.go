package modlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/rimrust/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSON(t *testing.T) {
	data := []byte(`[
		{"id": "818773962", "name": "HugsLib"},
		{"id": 2009463077, "name": "Harmony"}
	]`)

	mods, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []model.Mod{
		{ID: "818773962", Name: "HugsLib"},
		{ID: "2009463077", Name: "Harmony"},
	}, mods)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
- id: 818773962
  name: HugsLib
- id: "2009463077"
  name: Harmony
`)

	mods, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []model.Mod{
		{ID: "818773962", Name: "HugsLib"},
		{ID: "2009463077", Name: "Harmony"},
	}, mods)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"missing id", `[{"name": "Nameless"}]`, FormatJSON},
		{"blank id", `[{"id": "  ", "name": "Blank"}]`, FormatJSON},
		{"object id", `[{"id": {"x": 1}}]`, FormatJSON},
		{"not an array", `{"id": "1"}`, FormatJSON},
		{"yaml mapping id", "- id: {x: 1}\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestParse_DuplicatesKept(t *testing.T) {
	mods, err := Parse([]byte(`[{"id":"1","name":"A"},{"id":"1","name":"A"}]`), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, mods, 2)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "mods.json")
	yamlPath := filepath.Join(dir, "mods.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"id":"1","name":"Alpha"}]`), 0644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("- id: 2\n  name: Beta\n"), 0644))

	mods, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []model.Mod{{ID: "1", Name: "Alpha"}}, mods)

	mods, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []model.Mod{{ID: "2", Name: "Beta"}}, mods)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("mods.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("mods.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("mods.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("mods"))
}
