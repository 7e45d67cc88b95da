package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// defaultWindowLimit caps the frames returned around the current one.
const defaultWindowLimit = 20

// TimelineJumpInput is the input schema for the timeline_jump tool.
type TimelineJumpInput struct {
	Timestamp string `json:"timestamp" jsonschema:"time to jump to: RFC3339, '2006-01-02 15:04', '15:04', 'now' or a relative duration like '-30m'"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of frames to return around the target (default 20)"`
}

// TimelineWindowInput is the input schema for the timeline_window tool.
type TimelineWindowInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of frames to return around the current frame (default 20)"`
}

// FrameTextInput is the input schema for the frame_text tool.
type FrameTextInput struct {
	FrameID string `json:"frame_id" jsonschema:"identifier of the frame to read"`
}

// WindowOutput describes frames around the current position.
type WindowOutput struct {
	Current *FrameOutput  `json:"current,omitempty"`
	Frames  []FrameOutput `json:"frames"`
	Count   int           `json:"count"`
	Loaded  int           `json:"loaded"`
}

// FrameOutput represents a single frame.
type FrameOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	SegmentID string `json:"segment_id"`
}

// FrameTextOutput is the output schema for the frame_text tool.
type FrameTextOutput struct {
	FrameID   string `json:"frame_id"`
	Timestamp string `json:"timestamp,omitempty"`
	Text      string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "timeline_jump",
		Description: "Jump the screen timeline to a point in time and list the frames recorded around it",
	}, s.handleTimelineJump)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "timeline_window",
		Description: "List the frames around the current timeline position",
	}, s.handleTimelineWindow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "frame_text",
		Description: "Read the text recognised on a recorded frame",
	}, s.handleFrameText)
}

// handleTimelineJump handles the timeline_jump tool invocation.
func (s *Server) handleTimelineJump(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TimelineJumpInput,
) (*mcp.CallToolResult, WindowOutput, error) {
	t, err := domain.ParseTimeRef(input.Timestamp, s.now())
	if err != nil {
		return nil, WindowOutput{}, err
	}

	if err := s.ports.Timeline.JumpToTimestamp(ctx, t); err != nil {
		return nil, WindowOutput{}, fmt.Errorf("jumping to %s: %w", t.Format("2006-01-02 15:04:05"), err)
	}

	return nil, s.window(input.Limit), nil
}

// handleTimelineWindow handles the timeline_window tool invocation.
func (s *Server) handleTimelineWindow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TimelineWindowInput,
) (*mcp.CallToolResult, WindowOutput, error) {
	if len(s.ports.Timeline.Frames()) == 0 && !s.ports.Timeline.NoData() {
		if err := s.ports.Timeline.LoadInitial(ctx); err != nil {
			return nil, WindowOutput{}, fmt.Errorf("loading timeline: %w", err)
		}
	}
	return nil, s.window(input.Limit), nil
}

// handleFrameText handles the frame_text tool invocation.
func (s *Server) handleFrameText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FrameTextInput,
) (*mcp.CallToolResult, FrameTextOutput, error) {
	if input.FrameID == "" {
		return nil, FrameTextOutput{}, fmt.Errorf("%w: frame_id is required", domain.ErrInvalidInput)
	}

	id := domain.FrameID(input.FrameID)
	text, err := s.ports.Timeline.FrameText(ctx, id)
	if err != nil {
		return nil, FrameTextOutput{}, fmt.Errorf("reading frame %s: %w", id, err)
	}

	output := FrameTextOutput{FrameID: input.FrameID, Text: text}
	for _, f := range s.ports.Timeline.Frames() {
		if f.ID == id {
			output.Timestamp = formatTime(f)
			break
		}
	}
	return nil, output, nil
}

// window summarises up to limit frames centred on the current index.
func (s *Server) window(limit int) WindowOutput {
	if limit <= 0 {
		limit = defaultWindowLimit
	}

	frames := s.ports.Timeline.Frames()
	cur := s.ports.Timeline.CurrentIndex()
	lo := max(cur-limit/2, 0)
	hi := min(lo+limit, len(frames))
	lo = max(hi-limit, 0)

	output := WindowOutput{
		Frames: make([]FrameOutput, 0, hi-lo),
		Loaded: len(frames),
	}
	for _, f := range frames[lo:hi] {
		output.Frames = append(output.Frames, toFrameOutput(f))
	}
	output.Count = len(output.Frames)

	if f, ok := s.ports.Timeline.Current(); ok {
		fo := toFrameOutput(f)
		output.Current = &fo
	}
	return output
}

func toFrameOutput(f domain.FrameRef) FrameOutput {
	return FrameOutput{
		ID:        string(f.ID),
		Timestamp: formatTime(f),
		SegmentID: string(f.SegmentID),
	}
}

func formatTime(f domain.FrameRef) string {
	return f.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
}
