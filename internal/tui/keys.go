package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	ToggleVisible      key.Binding
	ToggleHidden       key.Binding
	ToggleAlwaysHidden key.Binding
	Refresh            key.Binding

	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleVisible, k.ToggleHidden, k.ToggleAlwaysHidden},
		{k.Refresh, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleVisible: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle visible"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle hidden"),
		),
		ToggleAlwaysHidden: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle always-hidden"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
