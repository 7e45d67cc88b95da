package domain

import "time"

// FrameID uniquely identifies a captured frame.
type FrameID string

// SegmentID identifies the recording segment a frame belongs to.
type SegmentID string

// LocatorKind describes where the pixels of a frame live.
type LocatorKind string

// Available locator kinds.
const (
	// LocatorVideo points at a frame inside a video container.
	LocatorVideo LocatorKind = "video"

	// LocatorImage points at a standalone image file.
	LocatorImage LocatorKind = "image"
)

// IsValid returns true if the locator kind is recognised.
func (k LocatorKind) IsValid() bool {
	return k == LocatorVideo || k == LocatorImage
}

// Locator tells a FrameStore how to decode a frame.
type Locator struct {
	// Kind selects between a video container and a raw image.
	Kind LocatorKind `json:"kind"`

	// Path is the container or image file path.
	Path string `json:"path"`

	// FrameIndex is the frame index within the container (video only).
	FrameIndex int `json:"frame_index,omitempty"`
}

// FrameRef is the immutable identity of one captured frame.
// It carries no pixels; decoding goes through the FrameStore.
type FrameRef struct {
	// ID is the unique identifier for the frame.
	ID FrameID `json:"id"`

	// Timestamp is the capture time. Timestamps are monotonic per store.
	Timestamp time.Time `json:"timestamp"`

	// SegmentID links the frame to its recording segment.
	SegmentID SegmentID `json:"segment_id"`

	// Locator is the media location, when known.
	Locator *Locator `json:"locator,omitempty"`
}

// Direction names one end of the timeline.
type Direction int

const (
	// DirectionOlder is towards the start of history.
	DirectionOlder Direction = iota
	// DirectionNewer is towards the live edge.
	DirectionNewer
)

// String returns the string representation.
func (d Direction) String() string {
	if d == DirectionOlder {
		return "older"
	}
	return "newer"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionOlder {
		return DirectionNewer
	}
	return DirectionOlder
}

// LoadState tracks paging progress of a timeline window.
// The HasReachedAbsolute flags are sticky: only a full window
// replacement clears them.
type LoadState struct {
	IsLoadingOlder bool
	IsLoadingNewer bool

	HasMoreOlder bool
	HasMoreNewer bool

	HasReachedAbsoluteStart bool
	HasReachedAbsoluteEnd   bool
}

// InitialLoadState is the state after a window replacement: more data is
// assumed in both directions and nothing has been reached.
func InitialLoadState() LoadState {
	return LoadState{HasMoreOlder: true, HasMoreNewer: true}
}

// IsLoading reports whether a load is in flight in the given direction.
func (s LoadState) IsLoading(d Direction) bool {
	if d == DirectionOlder {
		return s.IsLoadingOlder
	}
	return s.IsLoadingNewer
}

// HasMore reports whether more frames may exist in the given direction.
func (s LoadState) HasMore(d Direction) bool {
	if d == DirectionOlder {
		return s.HasMoreOlder
	}
	return s.HasMoreNewer
}

// HasReachedAbsolute reports whether the given end of history was reached.
func (s LoadState) HasReachedAbsolute(d Direction) bool {
	if d == DirectionOlder {
		return s.HasReachedAbsoluteStart
	}
	return s.HasReachedAbsoluteEnd
}

// SegmentSpan is a contiguous run of window frames sharing a segment.
type SegmentSpan struct {
	SegmentID  SegmentID
	StartIndex int
	EndIndex   int // inclusive
	Start      time.Time
	End        time.Time
}

// Len returns the number of frames in the span.
func (s SegmentSpan) Len() int {
	return s.EndIndex - s.StartIndex + 1
}

// DataSourceEvent signals that an upstream data source was toggled.
type DataSourceEvent struct {
	// Version is the data-source version after the change.
	Version int64
}
