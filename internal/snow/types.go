package snow

// Record is one row returned by the Table API. ServiceNow serializes
// scalar fields as strings; callers must restrict sysparm_fields to
// scalar columns (reference fields come back as objects and will not
// decode into a Record).
type Record map[string]string

// SysID returns the record's unique identifier.
func (r Record) SysID() string { return r["sys_id"] }

// Field returns a named field, or the empty string when absent.
func (r Record) Field(name string) string { return r[name] }

// Query describes one Table API read.
type Query struct {
	// Match lists field=value terms, combined with ^ (AND) in
	// sysparm_query. Terms are sorted before encoding so identical
	// queries produce identical URLs.
	Match map[string]string

	// Limit caps the number of returned rows (sysparm_limit). Zero means
	// no explicit limit.
	Limit int

	// Fields restricts the returned columns (sysparm_fields).
	Fields []string
}
