// Package ui holds the terminal styles shared by the CLI commands.
//
// Styling degrades to plain text when stdout is not a terminal or
// NO_COLOR is set, so piped output stays clean.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var colorEnabled = termenv.ColorProfile() != termenv.Ascii

// RenderPass styles success markers and messages.
func RenderPass(s string) string {
	if !colorEnabled {
		return s
	}
	return passStyle.Render(s)
}

// RenderFail styles failure markers and messages.
func RenderFail(s string) string {
	if !colorEnabled {
		return s
	}
	return failStyle.Render(s)
}

// RenderWarn styles warnings.
func RenderWarn(s string) string {
	if !colorEnabled {
		return s
	}
	return warnStyle.Render(s)
}

// RenderAccent styles headings and identifiers.
func RenderAccent(s string) string {
	if !colorEnabled {
		return s
	}
	return accentStyle.Render(s)
}

// RenderMuted styles secondary detail.
func RenderMuted(s string) string {
	if !colorEnabled {
		return s
	}
	return mutedStyle.Render(s)
}

// Table renders rows as two aligned columns with a two-space indent.
func Table(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, r[0], r[1])
	}
	return b.String()
}
