// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/rewind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rewind/internal/core/domain"
)

// TimeLayout is how frame capture times are shown.
const TimeLayout = "2006-01-02 15:04:05"

// FrameList renders the frames around the current one, newest last,
// keeping the current frame in view.
type FrameList struct {
	frames   []domain.FrameRef
	segments map[domain.SegmentID]int
	current  int
	styles   *styles.Styles
	width    int
	height   int
}

// NewFrameList creates a new frame list component.
func NewFrameList(s *styles.Styles) *FrameList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &FrameList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// SetFrames replaces the listed window and its current index. Segment
// colours follow the order segments appear in the window.
func (l *FrameList) SetFrames(frames []domain.FrameRef, current int) {
	l.frames = frames
	l.current = current
	l.segments = make(map[domain.SegmentID]int)
	for _, f := range frames {
		if _, ok := l.segments[f.SegmentID]; !ok {
			l.segments[f.SegmentID] = len(l.segments)
		}
	}
}

// VisibleRange returns the half-open window index range that fits the
// height, centred on the current frame where possible.
func (l *FrameList) VisibleRange() (int, int) {
	rows := l.height
	if rows < 1 {
		rows = 1
	}
	if len(l.frames) <= rows {
		return 0, len(l.frames)
	}
	start := l.current - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(l.frames) {
		end = len(l.frames)
		start = end - rows
	}
	return start, end
}

// View renders the frame list.
func (l *FrameList) View() string {
	if len(l.frames) == 0 {
		return l.styles.Muted.Render("No frames")
	}

	start, end := l.VisibleRange()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderFrame(i))
	}
	return strings.Join(lines, "\n")
}

func (l *FrameList) renderFrame(i int) string {
	f := l.frames[i]
	marker := l.styles.Segment(l.segments[f.SegmentID]).Render("█")
	stamp := f.Timestamp.Local().Format(TimeLayout)

	id := string(f.ID)
	maxID := l.width - len(TimeLayout) - 10
	if maxID < 8 {
		maxID = 8
	}
	if len(id) > maxID {
		id = id[:maxID-3] + "..."
	}

	if i == l.current {
		return marker + l.styles.Selected.Render(fmt.Sprintf("> %s  %s", stamp, id))
	}
	return marker + "  " + l.styles.Timestamp.Render(stamp) + "  " + l.styles.Muted.Render(id)
}

// SetDimensions sets the component dimensions.
func (l *FrameList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of frames listed.
func (l *FrameList) Count() int {
	return len(l.frames)
}

// IsEmpty returns whether the list is empty.
func (l *FrameList) IsEmpty() bool {
	return len(l.frames) == 0
}
