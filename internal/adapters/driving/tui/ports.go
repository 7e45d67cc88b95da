// Package tui provides an interactive terminal user interface for rewind.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Timeline browses frames, images and OCR text.
	Timeline driving.TimelineService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(timeline driving.TimelineService, settings driving.SettingsService) *Ports {
	return &Ports{
		Timeline: timeline,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Timeline == nil {
		return ErrMissingTimelineService
	}
	return nil
}
