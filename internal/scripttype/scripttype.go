// Package scripttype defines the registry of remote script types glidesync
// can synchronize.
//
// Each type maps a ServiceNow table to the pieces of information the sync
// engine needs: the column holding a record's name, the column holding the
// script body, and the file extension used for the local copy. The registry
// is built once at startup from the built-in descriptors (plus an optional
// user extension file, see LoadFile) and is immutable afterwards; every
// component receives it by reference.
package scripttype

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor describes one synchronizable script type. The remote table
// name doubles as the type identifier inside file names.
type Descriptor struct {
	Table     string `toml:"table"`
	Label     string `toml:"label"`
	NameField string `toml:"name_field"`
	BodyField string `toml:"body_field"`
	Extension string `toml:"extension"`
}

// Validate checks that the descriptor is complete and usable.
func (d Descriptor) Validate() error {
	if d.Table == "" {
		return fmt.Errorf("script type missing table name")
	}
	if d.Label == "" {
		return fmt.Errorf("script type %s missing label", d.Table)
	}
	if d.NameField == "" {
		return fmt.Errorf("script type %s missing name field", d.Table)
	}
	if d.BodyField == "" {
		return fmt.Errorf("script type %s missing body field", d.Table)
	}
	if d.Extension == "" {
		return fmt.Errorf("script type %s missing extension", d.Table)
	}
	if strings.ContainsAny(d.Extension, "./\\") {
		return fmt.Errorf("script type %s has invalid extension %q", d.Table, d.Extension)
	}
	return nil
}

// Registry is the closed set of script types known to this process.
// It is safe for concurrent use because it never changes after New.
type Registry struct {
	byTable map[string]Descriptor
	tables  []string
}

// New builds a registry from the given descriptors. Descriptors are
// validated and table names must be unique.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byTable: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byTable[d.Table]; dup {
			return nil, fmt.Errorf("duplicate script type %s", d.Table)
		}
		r.byTable[d.Table] = d
		r.tables = append(r.tables, d.Table)
	}
	sort.Strings(r.tables)
	return r, nil
}

// Defaults returns the built-in script types: the five ServiceNow
// server-script tables glidesync understands out of the box. Note that
// sys_ui_script names its records in script_name, not name.
func Defaults() []Descriptor {
	return []Descriptor{
		{Table: "sys_script", Label: "Business Rule", NameField: "name", BodyField: "script", Extension: "js"},
		{Table: "sys_script_include", Label: "Script Include", NameField: "name", BodyField: "script", Extension: "js"},
		{Table: "sys_script_client", Label: "Client Script", NameField: "name", BodyField: "script", Extension: "js"},
		{Table: "sys_ui_script", Label: "UI Script", NameField: "script_name", BodyField: "script", Extension: "js"},
		{Table: "sys_ui_action", Label: "UI Action", NameField: "name", BodyField: "script", Extension: "js"},
	}
}

// Default returns a registry holding only the built-in types.
func Default() *Registry {
	r, err := New(Defaults()...)
	if err != nil {
		// Defaults are compile-time constants; failure here is a bug.
		panic(fmt.Sprintf("scripttype: invalid built-in descriptors: %v", err))
	}
	return r
}

// Lookup returns the descriptor for a table, if registered.
func (r *Registry) Lookup(table string) (Descriptor, bool) {
	d, ok := r.byTable[table]
	return d, ok
}

// Has reports whether the table names a registered script type.
func (r *Registry) Has(table string) bool {
	_, ok := r.byTable[table]
	return ok
}

// Tables returns all registered table names in sorted order.
func (r *Registry) Tables() []string {
	out := make([]string, len(r.tables))
	copy(out, r.tables)
	return out
}

// Len returns the number of registered script types.
func (r *Registry) Len() int {
	return len(r.byTable)
}
