package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

func TestServer_handleTimelineJump(t *testing.T) {
	ctx := context.Background()

	t.Run("jumps to an absolute time", func(t *testing.T) {
		server, viewer := newTestServer(t, 60)

		input := TimelineJumpInput{Timestamp: "2026-03-01T09:30:00Z", Limit: 5}
		_, output, err := server.handleTimelineJump(ctx, nil, input)

		require.NoError(t, err)
		require.NotNil(t, output.Current)
		assert.Equal(t, "f030", output.Current.ID)
		assert.Equal(t, 5, output.Count)
		assert.Len(t, output.Frames, 5)
		assert.Equal(t, "f028", output.Frames[0].ID)
		assert.Equal(t, "s3", output.Current.SegmentID)

		cur, ok := viewer.Current()
		require.True(t, ok)
		assert.Equal(t, domain.FrameID("f030"), cur.ID)
	})

	t.Run("resolves relative times against now", func(t *testing.T) {
		server, _ := newTestServer(t, 60)

		// now is 10:00, so -45m lands on 09:15
		_, output, err := server.handleTimelineJump(ctx, nil, TimelineJumpInput{Timestamp: "-45m"})

		require.NoError(t, err)
		require.NotNil(t, output.Current)
		assert.Equal(t, "f015", output.Current.ID)
		assert.LessOrEqual(t, output.Count, defaultWindowLimit)
	})

	t.Run("rejects unparseable times", func(t *testing.T) {
		server, _ := newTestServer(t, 5)

		_, _, err := server.handleTimelineJump(ctx, nil, TimelineJumpInput{Timestamp: "yesterday-ish"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty store reports nothing found", func(t *testing.T) {
		server, _ := newTestServer(t, 0)

		_, _, err := server.handleTimelineJump(ctx, nil, TimelineJumpInput{Timestamp: "now"})

		assert.ErrorIs(t, err, domain.ErrEmptyResult)
	})
}

func TestServer_handleTimelineWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the newest frames on first use", func(t *testing.T) {
		server, _ := newTestServer(t, 30)

		_, output, err := server.handleTimelineWindow(ctx, nil, TimelineWindowInput{Limit: 4})

		require.NoError(t, err)
		require.NotNil(t, output.Current)
		assert.Equal(t, "f029", output.Current.ID)
		assert.Equal(t, 30, output.Loaded)
		require.Len(t, output.Frames, 4)
		assert.Equal(t, "f026", output.Frames[0].ID)
		assert.Equal(t, "f029", output.Frames[3].ID)
	})

	t.Run("default limit applies", func(t *testing.T) {
		server, _ := newTestServer(t, 50)

		_, output, err := server.handleTimelineWindow(ctx, nil, TimelineWindowInput{})

		require.NoError(t, err)
		assert.Equal(t, defaultWindowLimit, output.Count)
	})

	t.Run("empty store returns no frames", func(t *testing.T) {
		server, _ := newTestServer(t, 0)

		_, output, err := server.handleTimelineWindow(ctx, nil, TimelineWindowInput{})

		require.NoError(t, err)
		assert.Nil(t, output.Current)
		assert.Empty(t, output.Frames)
	})
}

func TestServer_handleFrameText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns frame text", func(t *testing.T) {
		server, viewer := newTestServer(t, 3)
		require.NoError(t, viewer.LoadInitial(ctx))

		_, output, err := server.handleFrameText(ctx, nil, FrameTextInput{FrameID: "f001"})

		require.NoError(t, err)
		assert.Equal(t, "f001", output.FrameID)
		assert.Equal(t, "frame f001", output.Text)
		assert.Equal(t, "2026-03-01T09:01:00.000Z", output.Timestamp)
	})

	t.Run("requires a frame id", func(t *testing.T) {
		server, _ := newTestServer(t, 1)

		_, _, err := server.handleFrameText(ctx, nil, FrameTextInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown frame returns not found", func(t *testing.T) {
		server, _ := newTestServer(t, 1)

		_, _, err := server.handleFrameText(ctx, nil, FrameTextInput{FrameID: "missing"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "reading frame missing")
	})
}
