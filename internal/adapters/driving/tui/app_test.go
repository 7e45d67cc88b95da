package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/services"
)

func newTestApp(t *testing.T, n int) (*App, *services.Viewer) {
	t.Helper()
	store := memory.NewFrameStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f := domain.FrameRef{
			ID:        domain.FrameID(fmt.Sprintf("f%03d", i)),
			Timestamp: t0.Add(time.Duration(i) * time.Second),
			SegmentID: "s1",
		}
		require.NoError(t, store.SaveFrame(context.Background(), f, []domain.OCRNode{
			{ID: string(f.ID) + "-n", FrameID: f.ID, Box: domain.Rect{X: 0.1, Y: 0.1, W: 0.3, H: 0.05}, Text: "text " + string(f.ID)},
		}))
		store.SetImage(f.ID, []byte(f.ID))
	}
	viewer := services.NewViewer(store, nil, domain.DefaultAppSettings())
	t.Cleanup(viewer.Close)

	app, err := NewApp(NewPorts(viewer, services.NewSettingsService(memory.NewConfigStore())))
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, viewer
}

// start runs the initial timeline load the way Init would.
func start(t *testing.T, app *App, viewer *services.Viewer) {
	t.Helper()
	app.Update(app.timelineView.Init()())
	viewer.WaitIdle()
	app.Update(messages.Tick{})
}

// drain runs cmd and feeds its message back into the app.
func drain(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	app.Update(cmd())
}

func TestNewApp_Success(t *testing.T) {
	app, _ := newTestApp(t, 0)

	require.NotNil(t, app)
	assert.Equal(t, messages.ViewTimeline, app.CurrentView())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingTimelineService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t, 0)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")
	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := newTestApp(t, 0)

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := newTestApp(t, 0)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
}

func TestApp_View_NotReady(t *testing.T) {
	viewer := services.NewViewer(memory.NewFrameStore(), nil, domain.DefaultAppSettings())
	t.Cleanup(viewer.Close)
	app, err := NewApp(&Ports{Timeline: viewer})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_TimelineRendersAfterLoad(t *testing.T) {
	app, viewer := newTestApp(t, 5)

	start(t, app, viewer)

	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "f004")
}

func TestApp_OpenTextView(t *testing.T) {
	app, viewer := newTestApp(t, 5)
	start(t, app, viewer)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, load := app.Update(cmd())
	assert.Equal(t, messages.ViewText, app.CurrentView())
	drain(app, load)

	assert.Contains(t, app.View(), "text f004")
}

func TestApp_BackFromTextView(t *testing.T) {
	app, viewer := newTestApp(t, 5)
	start(t, app, viewer)
	app.Update(messages.ViewChanged{View: messages.ViewText})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(app, cmd)

	assert.Equal(t, messages.ViewTimeline, app.CurrentView())
}

func TestApp_SettingsView(t *testing.T) {
	app, viewer := newTestApp(t, 1)
	start(t, app, viewer)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	require.NotNil(t, cmd)
	_, load := app.Update(cmd())
	drain(app, load)

	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	assert.Contains(t, app.View(), "timeline.max_frames")
}

func TestApp_HelpView(t *testing.T) {
	app, viewer := newTestApp(t, 1)
	start(t, app, viewer)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	drain(app, cmd)

	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "jump")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewTimeline, app.CurrentView())
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t, 0)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t, 0)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t, 0)
	boom := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: boom})

	assert.Equal(t, boom, app.Err())
}
