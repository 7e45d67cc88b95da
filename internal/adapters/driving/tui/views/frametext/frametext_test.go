package frametext

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/services"
)

func newTestView(t *testing.T, nodes ...domain.OCRNode) (*View, *services.Viewer) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewFrameStore()
	frame := domain.FrameRef{ID: "f1", Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), SegmentID: "s1"}
	require.NoError(t, store.SaveFrame(ctx, frame, nodes))
	store.SetImage(frame.ID, []byte("img"))

	viewer := services.NewViewer(store, nil, domain.DefaultAppSettings())
	t.Cleanup(viewer.Close)
	require.NoError(t, viewer.LoadInitial(ctx))
	viewer.WaitIdle()

	v := NewView(ctx, nil, nil, viewer)
	v.SetDimensions(80, 24)
	return v, viewer
}

func node(id, text string, x, y float64) domain.OCRNode {
	return domain.OCRNode{ID: id, FrameID: "f1", Box: domain.Rect{X: x, Y: y, W: 0.2, H: 0.04}, Text: text}
}

func TestView_LoadsText(t *testing.T) {
	v, _ := newTestView(t,
		node("b", "world", 0.3, 0.1),
		node("a", "hello", 0.05, 0.1),
		node("c", "second line", 0.05, 0.5),
	)

	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.Equal(t, status.StateLoading, v.statusBar.State())
	v.Update(cmd())

	assert.NoError(t, v.Err())
	assert.Equal(t, "hello world\nsecond line", v.Text())
	assert.Contains(t, v.View(), "hello world")
	assert.Equal(t, status.StateReady, v.statusBar.State())
}

func TestView_NoText(t *testing.T) {
	v, _ := newTestView(t)

	v.Update(v.Init()())

	assert.Contains(t, v.View(), "No text recognised")
}

func TestView_IgnoresTextForOtherFrames(t *testing.T) {
	v, _ := newTestView(t, node("a", "hello", 0.1, 0.1))
	v.Init()

	v.Update(messages.FrameTextLoaded{ID: "other", Text: "stale"})

	assert.Equal(t, "", v.Text())
}

func TestView_LoadError(t *testing.T) {
	v, _ := newTestView(t)
	v.Init()

	v.Update(messages.FrameTextLoaded{ID: "f1", Err: domain.ErrStoreUnavailable})

	assert.ErrorIs(t, v.Err(), domain.ErrStoreUnavailable)
	assert.Equal(t, status.StateError, v.statusBar.State())
	assert.Contains(t, v.View(), "frame store unavailable")
}

func TestView_SelectAll(t *testing.T) {
	v, viewer := newTestView(t, node("a", "hello", 0.05, 0.1), node("b", "there", 0.3, 0.1))
	v.Update(v.Init()())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, domain.SelectionAllSelected, viewer.Selection().State())
	assert.Equal(t, "Selected 11 characters", v.statusBar.Message())
	assert.Contains(t, v.View(), "hello there")
}

func TestView_BackResetsSelection(t *testing.T) {
	v, viewer := newTestView(t, node("a", "hello", 0.05, 0.1))
	v.Update(v.Init()())
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewTimeline}, cmd())
	assert.Equal(t, domain.SelectionEmpty, viewer.Selection().State())
}

func TestView_InitWithoutFrame(t *testing.T) {
	viewer := services.NewViewer(memory.NewFrameStore(), nil, domain.DefaultAppSettings())
	t.Cleanup(viewer.Close)
	v := NewView(context.Background(), nil, nil, viewer)

	assert.Nil(t, v.Init())
}

func TestView_NodeFocusAndPointSelection(t *testing.T) {
	v, viewer := newTestView(t, node("a", "hello", 0.05, 0.1), node("b", "there", 0.3, 0.1))
	v.Update(v.Init()())

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, v.View(), "Node 1/2: hello")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	assert.Equal(t, "hello", viewer.Selection().SelectedText())
	assert.Equal(t, `Selected "hello"`, v.statusBar.Message())

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, "there", viewer.Selection().SelectedText())
	assert.Equal(t, domain.SelectionCommitted, viewer.Selection().State())
}

func TestView_FocusWraps(t *testing.T) {
	v, _ := newTestView(t, node("a", "one", 0.05, 0.1), node("b", "two", 0.3, 0.1), node("c", "three", 0.05, 0.5))
	v.Update(v.Init()())

	v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, v.focus)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, v.focus)
}

func TestView_SelectWithoutFocusIsNoop(t *testing.T) {
	v, viewer := newTestView(t, node("a", "hello", 0.05, 0.1))
	v.Update(v.Init()())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})

	assert.Equal(t, domain.SelectionEmpty, viewer.Selection().State())
}
