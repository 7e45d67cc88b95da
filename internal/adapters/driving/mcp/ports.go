package mcp

import (
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Timeline browses frames and their OCR text.
	Timeline driving.TimelineService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Timeline == nil {
		return ErrMissingTimelineService
	}
	return nil
}
