package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/views/frametext"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/views/timeline"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	timelineView *timeline.View
	textView     *frametext.View
	settingsView *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	a := &App{
		ports:       ports,
		styles:      styles.DefaultStyles(),
		keymap:      keymap.DefaultKeyMap(),
		currentView: messages.ViewTimeline,
	}
	a.buildViews(context.Background())
	return a, nil
}

func (a *App) buildViews(ctx context.Context) {
	a.ctx = ctx
	a.timelineView = timeline.NewView(ctx, a.styles, a.keymap, a.ports.Timeline)
	a.textView = frametext.NewView(ctx, a.styles, a.keymap, a.ports.Timeline)
	a.settingsView = settings.NewView(a.styles, a.keymap, a.ports.Settings)
}

// WithContext sets the context for the app. Views are rebuilt so their
// service calls observe ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.buildViews(ctx)
	if a.ready {
		a.setDimensions(a.width, a.height)
	}
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("rewind"),
		a.timelineView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewTimeline:
			a.timelineView, cmd = a.timelineView.Update(msg)
		case messages.ViewText:
			a.textView, cmd = a.textView.Update(msg)
		case messages.ViewSettings:
			a.settingsView, cmd = a.settingsView.Update(msg)
		case messages.ViewHelp:
			if keymap.Matches(msg.String(), a.keymap.Back) || keymap.Matches(msg.String(), a.keymap.Help) {
				a.currentView = messages.ViewTimeline
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewText:
			return a, a.textView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewTimeline:
			// the window may have moved while another view was open
			a.timelineView, cmd = a.timelineView.Update(messages.Tick{})
			return a, cmd
		case messages.ViewHelp:
		}
		return a, nil

	case messages.TimelineLoaded, messages.Tick, messages.FrameDeleted:
		a.timelineView, cmd = a.timelineView.Update(msg)
		a.err = a.timelineView.Err()
		return a, cmd

	case messages.FrameTextLoaded:
		a.textView, cmd = a.textView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewText:
		return a.textView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewTimeline:
	}
	return a.timelineView.View()
}

// viewHelp renders the keybindings grouped as in the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, group := range a.keymap.FullHelp() {
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back to timeline"))
	return b.String()
}

func (a *App) setDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.timelineView.SetDimensions(width, height)
	a.textView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.setDimensions(width, height)
}
