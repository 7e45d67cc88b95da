// Package timeline provides the frame timeline view for the TUI.
package timeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	// registered for image.DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// TickInterval is how often the view polls while loads or decodes are pending.
const TickInterval = 100 * time.Millisecond

// pageSize is how far OlderPage and NewerPage step.
const pageSize = 10

// View browses the frame window.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	timeline driving.TimelineService

	frames    *list.FrameList
	statusBar *status.Bar
	prompt    *input.Prompt

	// now is swapped in tests
	now func() time.Time

	err     error
	notice  string
	ticking bool

	width  int
	height int
}

// NewView creates a new timeline view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, timeline driving.TimelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		timeline:  timeline,
		frames:    list.NewFrameList(s),
		statusBar: status.NewBar(s, km),
		prompt:    input.NewPrompt(s, "Jump to", "2006-01-02 15:04 | 15:04 | -30m"),
		now:       time.Now,
		width:     80,
		height:    24,
	}
}

// Init loads the initial window.
func (v *View) Init() tea.Cmd {
	return func() tea.Msg {
		return messages.TimelineLoaded{Err: v.timeline.LoadInitial(v.ctx)}
	}
}

// Update handles messages for the timeline view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.TimelineLoaded:
		v.err = msg.Err
		return v, v.refresh()

	case messages.Tick:
		v.ticking = false
		return v, v.refresh()

	case messages.FrameDeleted:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.err = nil
			v.notice = fmt.Sprintf("Deleted %s", msg.ID)
		}
		return v, v.refresh()

	case tea.KeyMsg:
		if v.prompt.Focused() {
			return v.handlePromptKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handlePromptKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.prompt.Reset()
		return v, nil
	case tea.KeyEnter:
		target, err := domain.ParseTimeRef(v.prompt.Value(), v.now())
		v.prompt.Reset()
		if err != nil {
			v.err = err
			return v, v.refresh()
		}
		return v, v.jump(target)
	}
	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	v.notice = ""
	switch {
	case keymap.Matches(k, v.keymap.Older):
		v.timeline.Step(-1)
	case keymap.Matches(k, v.keymap.Newer):
		v.timeline.Step(1)
	case keymap.Matches(k, v.keymap.OlderPage):
		v.timeline.Step(-pageSize)
	case keymap.Matches(k, v.keymap.NewerPage):
		v.timeline.Step(pageSize)
	case keymap.Matches(k, v.keymap.First):
		v.timeline.NavigateTo(0)
	case keymap.Matches(k, v.keymap.Last):
		v.timeline.NavigateTo(len(v.timeline.Frames()) - 1)
	case keymap.Matches(k, v.keymap.Jump):
		return v, v.prompt.Focus()
	case keymap.Matches(k, v.keymap.Delete):
		return v, v.deleteCurrent()
	case keymap.Matches(k, v.keymap.Text):
		if _, ok := v.timeline.Current(); !ok {
			return v, nil
		}
		return v, viewChanged(messages.ViewText)
	case keymap.Matches(k, v.keymap.Settings):
		return v, viewChanged(messages.ViewSettings)
	case keymap.Matches(k, v.keymap.Help):
		return v, viewChanged(messages.ViewHelp)
	case keymap.Matches(k, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	default:
		return v, nil
	}
	return v, v.refresh()
}

func viewChanged(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

func (v *View) jump(target time.Time) tea.Cmd {
	return func() tea.Msg {
		return messages.TimelineLoaded{Err: v.timeline.JumpToTimestamp(v.ctx, target)}
	}
}

func (v *View) deleteCurrent() tea.Cmd {
	cur, ok := v.timeline.Current()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return messages.FrameDeleted{ID: cur.ID, Err: v.timeline.DeleteFrame(cur.ID)}
	}
}

// refresh copies the window into the list and keeps polling while work is
// pending in the background.
func (v *View) refresh() tea.Cmd {
	v.frames.SetFrames(v.timeline.Frames(), v.timeline.CurrentIndex())
	v.statusBar.SetPosition(v.timeline.CurrentIndex(), len(v.timeline.Frames()))

	switch {
	case v.err != nil && !errors.Is(v.err, domain.ErrEmptyResult):
		v.statusBar.SetState(status.StateError)
		v.statusBar.SetMessage(v.err.Error())
	case v.timeline.NoData():
		v.statusBar.SetState(status.StateNoData)
		v.statusBar.SetMessage("")
	case v.pending():
		v.statusBar.SetState(status.StateLoading)
		v.statusBar.SetMessage("")
	default:
		v.statusBar.SetState(status.StateReady)
		v.statusBar.SetMessage(v.notice)
	}

	if !v.pending() || v.ticking {
		return nil
	}
	v.ticking = true
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return messages.Tick{At: t}
	})
}

func (v *View) pending() bool {
	state := v.timeline.State()
	if state.IsLoadingOlder || state.IsLoadingNewer {
		return true
	}
	if _, ok := v.timeline.Current(); !ok {
		return false
	}
	img, err := v.timeline.CurrentImage()
	return img == nil && err == nil
}

// View renders the timeline.
func (v *View) View() string {
	parts := []string{v.renderHeader(), "", v.renderImage(), v.renderStrip(), ""}
	if v.err != nil && errors.Is(v.err, domain.ErrEmptyResult) {
		parts = append(parts, v.styles.Warning.Render("Nothing recorded there"), "")
	}
	parts = append(parts, v.frames.View(), "")
	if v.prompt.Focused() {
		parts = append(parts, v.prompt.View())
	}
	parts = append(parts, v.statusBar.View())
	return strings.Join(parts, "\n")
}

func (v *View) renderHeader() string {
	title := v.styles.Title.Render("rewind")
	cur, ok := v.timeline.Current()
	if !ok {
		return title
	}
	stamp := v.styles.Timestamp.Render(cur.Timestamp.Local().Format(list.TimeLayout))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", stamp, "  ", v.styles.Muted.Render(string(cur.ID)))
}

func (v *View) renderImage() string {
	if _, ok := v.timeline.Current(); !ok {
		return v.styles.Muted.Render("No frame")
	}
	img, err := v.timeline.CurrentImage()
	switch {
	case err != nil:
		return v.styles.Error.Render("Image unavailable: " + err.Error())
	case img == nil:
		return v.styles.Muted.Render("Decoding...")
	}
	return v.styles.Normal.Render(describeImage(img))
}

// describeImage reports the format and size of an encoded image.
func describeImage(img []byte) string {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Sprintf("Image: %d bytes", len(img))
	}
	return fmt.Sprintf("Image: %dx%d %s, %d bytes", cfg.Width, cfg.Height, format, len(img))
}

// renderStrip draws one coloured cell per column across the window, with a
// caret under the current frame.
func (v *View) renderStrip() string {
	frames := v.timeline.Frames()
	if len(frames) == 0 {
		return ""
	}
	width := v.width - 2
	if width < 10 {
		width = 10
	}
	if width > len(frames) {
		width = len(frames)
	}

	colours := make(map[domain.SegmentID]int)
	for _, span := range v.timeline.Segments() {
		if _, ok := colours[span.SegmentID]; !ok {
			colours[span.SegmentID] = len(colours)
		}
	}

	var strip strings.Builder
	for col := 0; col < width; col++ {
		f := frames[col*len(frames)/width]
		strip.WriteString(v.styles.Segment(colours[f.SegmentID]).Render("━"))
	}
	caret := v.timeline.CurrentIndex() * width / len(frames)
	return strip.String() + "\n" + strings.Repeat(" ", caret) + v.styles.Cursor.Render("^")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusBar.SetWidth(width)
	v.prompt.SetWidth(width)
	// header, image, strip and status take about ten rows
	v.frames.SetDimensions(width, height-10)
}

// Err returns the last error shown.
func (v *View) Err() error {
	return v.err
}

// Prompting reports whether the jump prompt has focus.
func (v *View) Prompting() bool {
	return v.prompt.Focused()
}
