package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// fit cuts s to width terminal cells, marking the cut with an ellipsis, and
// pads the result so every row of a pane lines up.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, ellipsis)
	}
	return s + strings.Repeat(" ", max(width-runewidth.StringWidth(s), 0))
}
