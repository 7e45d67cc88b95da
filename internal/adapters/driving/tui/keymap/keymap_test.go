package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"older", km.Older, []string{"left", "h"}},
		{"newer", km.Newer, []string{"right", "l"}},
		{"older page", km.OlderPage, []string{"pgup", "H"}},
		{"newer page", km.NewerPage, []string{"pgdown", "L"}},
		{"first", km.First, []string{"home", "g"}},
		{"last", km.Last, []string{"end", "G"}},
		{"jump", km.Jump, []string{"/", "t"}},
		{"text", km.Text, []string{"enter", "o"}},
		{"select all", km.SelectAll, []string{"a"}},
		{"next node", km.NextNode, []string{"tab"}},
		{"prev node", km.PrevNode, []string{"shift+tab"}},
		{"select word", km.SelectWord, []string{"w"}},
		{"select node", km.SelectNode, []string{"n"}},
		{"delete", km.Delete, []string{"d", "delete"}},
		{"settings", km.Settings, []string{"s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Key)
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	require.Len(t, bindings, 5)
	assert.Equal(t, km.Older, bindings[0])
	assert.Equal(t, km.Quit, bindings[4])
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 4)
	assert.Len(t, bindings[0], 6)
	assert.Len(t, bindings[1], 3)
	assert.Len(t, bindings[2], 5)
	assert.Len(t, bindings[3], 4)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("h", km.Older))
	assert.True(t, Matches("G", km.Last))
	assert.False(t, Matches("g", km.Last))
	assert.False(t, Matches("x", km.Quit))
}
