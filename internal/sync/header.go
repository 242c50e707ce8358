package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/glidekit/glidesync/internal/scripttype"
)

// composeHeader renders the metadata block written at the top of every
// pulled file: one block comment, then a blank line. The body follows
// verbatim.
//
//	/* Script Include: PaymentUtil
//	 * Table: sys_script_include
//	 * Sys ID: 46c7318fdb96c4...
//	 * Synced: 2026-08-23T10:11:12Z
//	 */
func composeHeader(desc scripttype.Descriptor, name, sysID string, syncedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* %s: %s\n", desc.Label, name)
	fmt.Fprintf(&b, " * Table: %s\n", desc.Table)
	fmt.Fprintf(&b, " * Sys ID: %s\n", sysID)
	fmt.Fprintf(&b, " * Synced: %s\n", syncedAt.Format(time.RFC3339))
	b.WriteString(" */\n\n")
	return b.String()
}

// stripHeader removes a single leading block comment, plus the
// whitespace that follows its close delimiter, from content. This is
// the inverse of composeHeader and keeps repeated pull/push cycles from
// nesting headers inside headers.
//
// The scan is literal: content must start with "/*" at byte zero, and
// only the first "*/" ends the header. Content without that prefix, or
// with an unterminated comment, is returned unchanged.
func stripHeader(content string) string {
	if !strings.HasPrefix(content, "/*") {
		return content
	}
	end := strings.Index(content, "*/")
	if end < 0 {
		return content
	}
	return strings.TrimLeft(content[end+2:], " \t\r\n")
}
