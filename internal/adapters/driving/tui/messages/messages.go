// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewTimeline is the frame timeline browser.
	ViewTimeline ViewType = iota
	// ViewText shows the OCR text of the current frame.
	ViewText
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewTimeline:
		return "timeline"
	case ViewText:
		return "text"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// TimelineLoaded signals that a window load or jump finished.
type TimelineLoaded struct {
	Err error
}

// Tick asks the timeline to refresh while background work is pending.
type Tick struct {
	At time.Time
}

// FrameDeleted signals a frame was removed from the timeline.
type FrameDeleted struct {
	ID  domain.FrameID
	Err error
}

// FrameTextLoaded carries the OCR text of a frame.
type FrameTextLoaded struct {
	ID   domain.FrameID
	Text string
	Err  error
}

// PositionSaved signals the resume snapshot was written.
type PositionSaved struct {
	Err error
}

// SettingsLoaded carries the effective settings.
type SettingsLoaded struct {
	Keys   []string
	Values map[string]string
	Err    error
}

// SettingSaved signals a single setting was updated.
type SettingSaved struct {
	Key string
	Err error
}
