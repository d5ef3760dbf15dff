package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// profile is the color depth of stdout, detected once.
var profile = colorprofile.Detect(os.Stdout, os.Environ())

// accent returns hex on terminals with at least 256 colors. Smaller palettes
// get plain ANSI cyan so visited entries stay distinguishable.
func accent(hex string) lipgloss.TerminalColor {
	if profile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(6)
	}
	return lipgloss.Color(hex)
}

// Theme holds the colors and styles of the browser.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Header   lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
	Cursor   lipgloss.Style // primary pane selection
	Current  lipgloss.Style // the entry for the open location
	Visited  lipgloss.Style
	NoLink   lipgloss.Style // labels without a target
	Status   lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// DefaultTheme returns the adaptive dark/light theme drawn with r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Pane = r.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(t.Border)
	t.Focused = t.Pane.BorderForeground(t.Primary)

	t.Cursor = r.NewStyle().Background(t.Highlight).Bold(true)
	t.Current = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Visited = r.NewStyle().Foreground(accent("#8BE9FD"))
	t.NoLink = r.NewStyle().Foreground(t.Muted)
	t.Status = r.NewStyle().Foreground(t.Muted).Italic(true)
	t.HelpKey = r.NewStyle().Foreground(t.Primary)
	t.HelpDesc = r.NewStyle().Foreground(t.Muted)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
