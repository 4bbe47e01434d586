// Package ui renders terminal output for the reasons CLI.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorHash    = 179 // amber
	colorHeading = 74  // blue
	colorOK      = 114 // green
	colorWarn    = 173 // orange
	colorMuted   = 245 // medium gray
)

var noColor bool

func paint(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderHash returns an abbreviated commit hash in the hash color.
func RenderHash(s string) string { return paint(colorHash, s) }

// RenderHeading returns s in the heading (blue) color.
func RenderHeading(s string) string { return paint(colorHeading, s) }

// RenderOK returns s in green.
func RenderOK(s string) string { return paint(colorOK, s) }

// RenderWarn returns s in orange.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ColorEnabled reports whether Render* functions emit escape codes.
func ColorEnabled() bool {
	return !noColor
}
