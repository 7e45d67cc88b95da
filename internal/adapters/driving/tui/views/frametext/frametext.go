// Package frametext provides the OCR text view for the current frame.
package frametext

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// View shows the recognised text of the current frame and the text
// currently selected on it.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	timeline driving.TimelineService

	viewport  viewport.Model
	statusBar *status.Bar

	frame domain.FrameRef
	text  string
	err   error

	// focus indexes the node that word and node selection act on, -1 for none
	focus int

	width  int
	height int
}

// NewView creates a new frame text view.
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

	bar := status.NewBar(s, km)
	bar.SetBindings(km.TextHelp())

	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		timeline:  timeline,
		viewport:  viewport.New(80, 18),
		statusBar: bar,
		focus:     -1,
		width:     80,
		height:    24,
	}
}

// Init loads the text of the current frame.
func (v *View) Init() tea.Cmd {
	cur, ok := v.timeline.Current()
	if !ok {
		return nil
	}
	v.frame = cur
	v.text = ""
	v.err = nil
	v.focus = -1
	v.statusBar.Clear()
	v.statusBar.SetState(status.StateLoading)
	return func() tea.Msg {
		text, err := v.timeline.FrameText(v.ctx, cur.ID)
		return messages.FrameTextLoaded{ID: cur.ID, Text: text, Err: err}
	}
}

// Update handles messages for the frame text view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.FrameTextLoaded:
		if msg.ID != v.frame.ID {
			return v, nil
		}
		v.statusBar.SetState(status.StateReady)
		if msg.Err != nil {
			v.err = msg.Err
			v.statusBar.SetState(status.StateError)
			v.statusBar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.text = msg.Text
		v.render()
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Back):
			v.timeline.Selection().Reset()
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewTimeline} }
		case keymap.Matches(k, v.keymap.SelectAll):
			sel := v.timeline.Selection()
			sel.SelectAll()
			v.statusBar.SetMessage(fmt.Sprintf("Selected %d characters", len([]rune(sel.SelectedText()))))
			v.render()
			return v, nil
		case keymap.Matches(k, v.keymap.NextNode):
			v.moveFocus(1)
			return v, nil
		case keymap.Matches(k, v.keymap.PrevNode):
			v.moveFocus(-1)
			return v, nil
		case keymap.Matches(k, v.keymap.SelectWord):
			v.selectAtFocus(driving.SelectionService.SelectWordAt)
			return v, nil
		case keymap.Matches(k, v.keymap.SelectNode):
			v.selectAtFocus(driving.SelectionService.SelectNodeAt)
			return v, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}
	return v, nil
}

// moveFocus cycles the focused node in reading order.
func (v *View) moveFocus(delta int) {
	n := len(v.timeline.Selection().Nodes())
	if n == 0 {
		v.focus = -1
		return
	}
	if v.focus < 0 && delta < 0 {
		v.focus = 0
	}
	v.focus = ((v.focus+delta)%n + n) % n
}

// focusedNode returns the focused node, if any.
func (v *View) focusedNode() (domain.OCRNode, bool) {
	nodes := v.timeline.Selection().Nodes()
	if v.focus < 0 || v.focus >= len(nodes) {
		return domain.OCRNode{}, false
	}
	return nodes[v.focus], true
}

// selectAtFocus applies a point selection at the centre of the focused node.
func (v *View) selectAtFocus(sel func(driving.SelectionService, domain.Point)) {
	n, ok := v.focusedNode()
	if !ok {
		return
	}
	engine := v.timeline.Selection()
	sel(engine, n.Box.Center())
	v.statusBar.SetMessage(fmt.Sprintf("Selected %q", engine.SelectedText()))
	v.render()
}

// render fills the viewport, highlighting the selection when there is one.
func (v *View) render() {
	body := v.text
	if selected := v.timeline.Selection().SelectedText(); selected != "" {
		body = v.styles.Highlight.Render(selected)
	}
	if body == "" {
		body = v.styles.Muted.Render("No text recognised on this frame")
	}
	v.viewport.SetContent(body)
}

// View renders the frame text.
func (v *View) View() string {
	header := v.styles.Title.Render("Text") + "  " +
		v.styles.Timestamp.Render(v.frame.Timestamp.Local().Format(list.TimeLayout))
	parts := []string{header, ""}
	if n, ok := v.focusedNode(); ok {
		total := len(v.timeline.Selection().Nodes())
		parts = append(parts, v.styles.Subtitle.Render(fmt.Sprintf("Node %d/%d: %s", v.focus+1, total, n.Text)), "")
	}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render(v.err.Error()))
	} else {
		parts = append(parts, v.viewport.View())
	}
	parts = append(parts, "", v.statusBar.View())
	return strings.Join(parts, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusBar.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(height-4, 1)
}

// Text returns the loaded text.
func (v *View) Text() string {
	return v.text
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
