package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for Rewind resources.
	uriScheme = "rewind://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the current window.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "timeline",
		Name:        "timeline",
		Description: "Frames around the current timeline position",
		MIMEType:    "application/json",
	}, s.handleTimelineResource)

	// Template for frame text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "frames/{frameId}/text",
		Name:        "frame-text",
		Description: "Text recognised on a specific frame, in reading order",
		MIMEType:    "text/plain",
	}, s.handleFrameTextResource)
}

// handleTimelineResource returns the frames around the current position.
func (s *Server) handleTimelineResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.window(defaultWindowLimit), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling timeline: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleFrameTextResource returns the text of a specific frame.
func (s *Server) handleFrameTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract frameId from URI: rewind://frames/{frameId}/text
	frameID := extractFrameID(req.Params.URI)
	if frameID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Timeline.FrameText(ctx, domain.FrameID(frameID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting frame text: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

// extractFrameID extracts the frame ID from a URI like rewind://frames/{frameId}/text.
func extractFrameID(uri string) string {
	const prefix = uriScheme + "frames/"
	const suffix = "/text"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
