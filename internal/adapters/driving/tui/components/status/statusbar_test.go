package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilArguments(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotEmpty(t, bar.bindings)
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(b *Bar)
		contains string
	}{
		{"ready", func(_ *Bar) {}, "Ready"},
		{"position", func(b *Bar) { b.SetPosition(4, 10) }, "5/10"},
		{"loading", func(b *Bar) { b.SetState(StateLoading) }, "Loading..."},
		{"error", func(b *Bar) { b.SetState(StateError); b.SetMessage("boom") }, "Error: boom"},
		{"bare error", func(b *Bar) { b.SetState(StateError) }, "Error"},
		{"help", func(b *Bar) { b.SetState(StateHelp) }, "Help"},
		{"no data", func(b *Bar) { b.SetState(StateNoData) }, "No frames recorded"},
		{"message", func(b *Bar) { b.SetMessage("copied") }, "copied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			tt.setup(bar)

			view := bar.View()

			assert.Contains(t, view, tt.contains)
			assert.Contains(t, view, "q: quit")
		})
	}
}

func TestStatusBar_SetBindings(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	bar.SetBindings([]key.Binding{key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "explode"))})

	view := bar.View()
	assert.Contains(t, view, "x: explode")
	assert.NotContains(t, view, "q: quit")
}

func TestStatusBar_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.NotEmpty(t, bar.View())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("error")
	bar.SetPosition(3, 9)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Contains(t, bar.View(), "Ready")
}
