package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/navplus/pkg/widget"
)

// KeyMap defines the key bindings of the browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Home     key.Binding
	End      key.Binding
	Open     key.Binding
	Toggle   key.Binding
	Focus    key.Binding
	Dual     key.Binding
	Wider    key.Binding
	Narrower key.Binding
	Copy     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "collapse"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "expand"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Dual: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dual nav"),
		),
		Wider: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "widen"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "narrow"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// treeKey maps a key press to the widget's navigation keys.
func (k KeyMap) treeKey(msg tea.KeyMsg) widget.Key {
	switch {
	case key.Matches(msg, k.Up):
		return widget.KeyUp
	case key.Matches(msg, k.Down):
		return widget.KeyDown
	case key.Matches(msg, k.Left):
		return widget.KeyLeft
	case key.Matches(msg, k.Right):
		return widget.KeyRight
	case key.Matches(msg, k.Home):
		return widget.KeyHome
	case key.Matches(msg, k.End):
		return widget.KeyEnd
	default:
		return widget.KeyNone
	}
}

func (k KeyMap) helpLine(t Theme) string {
	bindings := []key.Binding{k.Up, k.Down, k.Open, k.Toggle, k.Focus, k.Dual, k.Copy, k.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", t.HelpKey.Render(h.Key), t.HelpDesc.Render(h.Desc)))
	}
	return strings.Join(parts, t.HelpDesc.Render(" • "))
}
