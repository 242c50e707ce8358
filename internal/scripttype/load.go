package scripttype

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// typesFile mirrors the TOML layout of a registry extension file:
//
//	[[types]]
//	table      = "u_integration_script"
//	label      = "Integration Script"
//	name_field = "name"
//	body_field = "script"
//	extension  = "js"
type typesFile struct {
	Types []Descriptor `toml:"types"`
}

// LoadFile reads extra descriptors from a TOML extension file. The
// descriptors are returned unvalidated; New performs validation and
// rejects collisions with built-in tables.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read types file: %w", err)
	}
	var f typesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse types file %s: %w", path, err)
	}
	return f.Types, nil
}

// Load builds the process registry: the built-in descriptors plus, when
// path is non-empty, the user's extension file.
func Load(path string) (*Registry, error) {
	descs := Defaults()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		descs = append(descs, extra...)
	}
	reg, err := New(descs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build script type registry: %w", err)
	}
	return reg, nil
}
