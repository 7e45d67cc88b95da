// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// errNoService is reported when the view runs without a settings service.
var errNoService = errors.New("settings service not available")

// View lists every setting and edits one at a time.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	settingsService driving.SettingsService

	keys     []string
	values   map[string]string
	selected int
	err      error

	editor    *input.Prompt
	statusBar *status.Bar

	width  int
	height int
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, km *keymap.KeyMap, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetBindings(nil)

	return &View{
		styles:          s,
		keymap:          km,
		settingsService: settingsService,
		editor:          input.NewPrompt(s, "", ""),
		statusBar:       bar,
		width:           80,
		height:          24,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// Reset drops any edit in progress.
func (v *View) Reset() {
	v.editor.Reset()
	v.statusBar.Clear()
	v.err = nil
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: errNoService}
		}
		values, err := v.settingsService.Values()
		return messages.SettingsLoaded{Keys: v.settingsService.Keys(), Values: values, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.keys = msg.Keys
			v.values = msg.Values
			if v.selected >= len(v.keys) {
				v.selected = 0
			}
		}
		return v, nil

	case messages.SettingSaved:
		if msg.Err != nil {
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.statusBar.SetState(status.StateReady)
		v.statusBar.SetMessage(fmt.Sprintf("Saved %s, applies on next start", msg.Key))
		return v, v.loadSettings()

	case tea.KeyMsg:
		if v.editor.Focused() {
			return v.handleEditorKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewTimeline} }
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.keys)-1 {
			v.selected++
		}
	case keymap.Matches(k, v.keymap.Select):
		if len(v.keys) == 0 {
			return v, nil
		}
		key := v.keys[v.selected]
		v.editor.SetLabel(key)
		v.editor.SetValue(v.values[key])
		return v, v.editor.Focus()
	}
	return v, nil
}

func (v *View) handleEditorKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.editor.Reset()
		return v, nil
	case tea.KeyEnter:
		key, value := v.editor.Label(), strings.TrimSpace(v.editor.Value())
		v.editor.Reset()
		return v, func() tea.Msg {
			return messages.SettingSaved{Key: key, Err: v.settingsService.Set(key, value)}
		}
	}
	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(msg)
	return v, cmd
}

// View renders the settings list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	width := 0
	for _, k := range v.keys {
		width = max(width, len(k))
	}
	for i, k := range v.keys {
		line := fmt.Sprintf("%-*s  %s", width, k, v.values[k])
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.editor.Focused() {
		b.WriteString(v.editor.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[enter] save  [esc] cancel"))
	} else {
		b.WriteString(v.styles.Help.Render("[↑/↓] select  [enter] edit  [esc] back"))
	}
	b.WriteString("\n")
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusBar.SetWidth(width)
	v.editor.SetWidth(width)
}

// Selected returns the index of the highlighted setting.
func (v *View) Selected() int {
	return v.selected
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editor.Focused()
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
