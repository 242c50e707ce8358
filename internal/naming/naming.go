// Package naming implements the file-name convention that links a local
// file to a remote script record.
//
// A synchronized file is named <artifactName>.<table>.<extension>, where
// table identifies a registered script type and extension is that type's
// required extension. Artifact names may themselves contain dots:
// com.example.Util.sys_script.js decodes to the artifact com.example.Util
// in table sys_script. Decode and Encode are pure functions over the
// registry passed in; the package holds no state.
package naming

import (
	"fmt"
	"strings"

	"github.com/glidekit/glidesync/internal/scripttype"
)

// Token is the decoded form of a file name. It is produced only by
// Decode and never persisted. When Valid is false the other fields are
// zero.
type Token struct {
	Name  string
	Type  string
	Valid bool
}

// Decode parses fileName against the naming convention. The last dot
// segment is the extension, the next-to-last is the script type table,
// and the remaining segments rejoined with dots form the artifact name.
// The token is valid only when the type is registered and the extension
// matches that type's descriptor.
func Decode(reg *scripttype.Registry, fileName string) Token {
	parts := strings.Split(fileName, ".")
	if len(parts) < 3 {
		return Token{}
	}
	ext := parts[len(parts)-1]
	table := parts[len(parts)-2]
	desc, ok := reg.Lookup(table)
	if !ok || ext != desc.Extension {
		return Token{}
	}
	return Token{
		Name:  strings.Join(parts[:len(parts)-2], "."),
		Type:  table,
		Valid: true,
	}
}

// Encode composes the file name for an artifact of the given type,
// sanitizing the artifact name first. Decode(Encode(n, t)) always yields
// Token{Sanitize(n), t, true} for a registered t.
func Encode(reg *scripttype.Registry, name, table string) (string, error) {
	desc, ok := reg.Lookup(table)
	if !ok {
		return "", fmt.Errorf("unknown script type %s", table)
	}
	return Sanitize(name) + "." + table + "." + desc.Extension, nil
}

// Sanitize replaces every character outside [A-Za-z0-9_.-] with an
// underscore so any remote record name yields a portable file name.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
