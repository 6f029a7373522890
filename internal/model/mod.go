package model

import "fmt"

// Mod represents a single Steam Workshop item.
//
// ID is the workshop file id passed to SteamCMD. Name is only used for
// logging and display. Two mods with the same ID are installed twice.
type Mod struct {
	// ID is the workshop file id, e.g. "818773962".
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable mod name.
	Name string `json:"name" yaml:"name"`
}

// String returns "Name (ID)", or just the ID when the mod has no name.
func (m Mod) String() string {
	if m.Name == "" {
		return m.ID
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}
