package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// TimelineService browses the frame timeline.
type TimelineService interface {
	// LoadInitial restores the last position or loads the newest frames.
	LoadInitial(ctx context.Context) error

	// NavigateTo moves to a window index, clamped.
	NavigateTo(index int)

	// Step moves the current index by delta frames.
	Step(delta int)

	// JumpToTimestamp replaces the window around t.
	// Returns domain.ErrEmptyResult when nothing is there.
	JumpToTimestamp(ctx context.Context, t time.Time) error

	// JumpToFrame makes a frame current, loading around it if needed.
	JumpToFrame(ctx context.Context, id domain.FrameID) error

	// DeleteFrame removes a frame from the window and the store.
	DeleteFrame(id domain.FrameID) error

	// DeleteRange removes several frames.
	DeleteRange(ids []domain.FrameID) error

	// Current returns the current frame.
	Current() (domain.FrameRef, bool)

	// CurrentIndex returns the current window index.
	CurrentIndex() int

	// Frames returns a copy of the window.
	Frames() []domain.FrameRef

	// Segments returns the window grouped by recording segment.
	Segments() []domain.SegmentSpan

	// State returns the paging state.
	State() domain.LoadState

	// Err returns the last load or jump error.
	Err() error

	// NoData reports whether the store had no frames at all.
	NoData() bool

	// CurrentImage returns the current frame's image. A nil image with a
	// nil error means decoding is still pending.
	CurrentImage() ([]byte, error)

	// Image returns the decoded image of any frame.
	Image(ctx context.Context, id domain.FrameID) ([]byte, error)

	// FrameText returns the OCR text of any frame in reading order.
	FrameText(ctx context.Context, id domain.FrameID) (string, error)

	// Selection returns the selection engine for the current frame.
	Selection() SelectionService

	// SavePosition persists the window so the next start resumes here.
	SavePosition(ctx context.Context) error
}
