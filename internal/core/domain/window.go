package domain

import (
	"fmt"
	"sort"
)

// DefaultMaxFrames is the default upper bound on window length.
const DefaultMaxFrames = 500

// NormalizeFrames returns frames sorted ascending by timestamp with
// duplicate identities and duplicate timestamps removed. The first
// occurrence wins. The input slice is not modified.
func NormalizeFrames(frames []FrameRef) []FrameRef {
	if len(frames) == 0 {
		return nil
	}
	sorted := make([]FrameRef, len(frames))
	copy(sorted, frames)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:0]
	seen := make(map[FrameID]struct{}, len(sorted))
	for _, f := range sorted {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		if n := len(out); n > 0 && !out[n-1].Timestamp.Before(f.Timestamp) {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

// ReverseFrames reverses frames in place.
func ReverseFrames(frames []FrameRef) {
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
}

// ClampIndex clamps index into [0, length-1]. It returns 0 for an empty window.
func ClampIndex(index, length int) int {
	if length <= 0 || index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

// ValidateWindow checks the window invariants: strictly ascending
// timestamps, no duplicate identities, and an in-range index when the
// window is non-empty.
func ValidateWindow(frames []FrameRef, index int) error {
	seen := make(map[FrameID]struct{}, len(frames))
	for i, f := range frames {
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate frame %s at %d", ErrInvalidInput, f.ID, i)
		}
		seen[f.ID] = struct{}{}
		if i > 0 && !frames[i-1].Timestamp.Before(f.Timestamp) {
			return fmt.Errorf("%w: frame %s at %d is not after its predecessor", ErrInvalidInput, f.ID, i)
		}
	}
	if len(frames) > 0 && (index < 0 || index >= len(frames)) {
		return fmt.Errorf("%w: index %d outside window of %d", ErrInvalidInput, index, len(frames))
	}
	return nil
}
