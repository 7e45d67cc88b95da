// Package mcp provides an MCP (Model Context Protocol) server adapter for Rewind.
// It lets AI assistants browse the recorded screen timeline and read the
// text recognised on frames.
package mcp

import "errors"

// ErrMissingTimelineService is returned when the timeline service is not provided.
var ErrMissingTimelineService = errors.New("mcp: timeline service is required")
