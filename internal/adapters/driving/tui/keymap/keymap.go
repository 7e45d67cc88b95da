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

	// Older steps one frame back in time.
	Older key.Binding

	// Newer steps one frame forward in time.
	Newer key.Binding

	// OlderPage steps a page of frames back.
	OlderPage key.Binding

	// NewerPage steps a page of frames forward.
	NewerPage key.Binding

	// First moves to the oldest loaded frame.
	First key.Binding

	// Last moves to the newest loaded frame.
	Last key.Binding

	// Jump opens the timestamp prompt.
	Jump key.Binding

	// Text shows the OCR text of the current frame.
	Text key.Binding

	// SelectAll selects all text on the current frame.
	SelectAll key.Binding

	// NextNode focuses the next OCR node in reading order.
	NextNode key.Binding

	// PrevNode focuses the previous OCR node.
	PrevNode key.Binding

	// SelectWord selects the word at the centre of the focused node.
	SelectWord key.Binding

	// SelectNode selects the whole focused node.
	SelectNode key.Binding

	// Delete removes the current frame.
	Delete key.Binding

	// Settings opens the settings view.
	Settings key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding
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
		Older: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "older"),
		),
		Newer: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "newer"),
		),
		OlderPage: key.NewBinding(
			key.WithKeys("pgup", "H"),
			key.WithHelp("pgup/H", "page older"),
		),
		NewerPage: key.NewBinding(
			key.WithKeys("pgdown", "L"),
			key.WithHelp("pgdn/L", "page newer"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		Jump: key.NewBinding(
			key.WithKeys("/", "t"),
			key.WithHelp("/", "jump"),
		),
		Text: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter", "text"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		NextNode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next node"),
		),
		PrevNode: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev node"),
		),
		SelectWord: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "select word"),
		),
		SelectNode: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "select node"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Older, k.Newer, k.Jump, k.Help, k.Quit}
}

// TextHelp returns keybindings for the frame text view.
func (k *KeyMap) TextHelp() []key.Binding {
	return []key.Binding{k.NextNode, k.SelectWord, k.SelectNode, k.SelectAll, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Older, k.Newer, k.OlderPage, k.NewerPage, k.First, k.Last},
		{k.Jump, k.Text, k.Delete},
		{k.NextNode, k.PrevNode, k.SelectWord, k.SelectNode, k.SelectAll},
		{k.Settings, k.Back, k.Help, k.Quit},
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
