// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list or scrolls up.
	Up key.Binding

	// Down navigates down in a list or scrolls down.
	Down key.Binding

	// PageUp scrolls up one page.
	PageUp key.Binding

	// PageDown scrolls down one page.
	PageDown key.Binding

	// Top jumps to the start.
	Top key.Binding

	// Bottom jumps to the end.
	Bottom key.Binding

	// Select confirms a selection.
	Select key.Binding

	// Filter narrows the history list.
	Filter key.Binding

	// Reload reads the history again.
	Reload key.Binding

	// Format switches a prompt between original and reformatted text.
	Format key.Binding

	// Refresh discards the stored reformat and asks again.
	Refresh key.Binding

	// Attachments shows the pasted attachments of a prompt.
	Attachments key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Format: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "formatted"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reformat"),
		),
		Attachments: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "attachments"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// HistoryHelp returns keybindings for the history list.
func (k *KeyMap) HistoryHelp() []key.Binding {
	return []key.Binding{k.Select, k.Filter, k.Reload, k.Back}
}

// PromptHelp returns keybindings for the prompt view.
func (k *KeyMap) PromptHelp() []key.Binding {
	return []key.Binding{k.Format, k.Refresh, k.Attachments, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Select, k.Filter, k.Reload, k.Back},
		{k.Format, k.Refresh, k.Attachments},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
