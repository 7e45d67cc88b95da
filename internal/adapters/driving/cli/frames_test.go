package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

func TestFramesListCmd_HasFlags(t *testing.T) {
	flag := framesListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
	assert.NotNil(t, framesListCmd.Flags().Lookup("json"))
	assert.NotNil(t, framesJumpCmd.Flags().Lookup("save"))
}

func TestFramesList_NewestFirstLoad(t *testing.T) {
	setupTestServices(t, 30)

	out, err := runCommand(t, "frames", "list", "--limit", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "f027")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "f029")
	assert.NotContains(t, out, "f026")
	assert.Contains(t, out, "3 of 30 loaded frames")
}

func TestFramesList_Empty(t *testing.T) {
	setupTestServices(t, 0)

	out, err := runCommand(t, "frames", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No frames recorded.")
}

func TestFramesList_JSON(t *testing.T) {
	setupTestServices(t, 5)

	out, err := runCommand(t, "frames", "list", "--json")

	require.NoError(t, err)
	var frames []domain.FrameRef
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 5)
	assert.Equal(t, domain.FrameID("f000"), frames[0].ID)
}

func TestFramesJump(t *testing.T) {
	env := setupTestServices(t, 60)

	out, err := runCommand(t, "frames", "jump", "2026-03-01T09:30:00Z", "--limit", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "f030")
	cur, ok := env.viewer.Current()
	require.True(t, ok)
	assert.Equal(t, domain.FrameID("f030"), cur.ID)

	_, err = env.positions.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFramesJump_Save(t *testing.T) {
	env := setupTestServices(t, 60)

	_, err := runCommand(t, "frames", "jump", "2026-03-01T09:30:00Z", "--save")

	require.NoError(t, err)
	saved, err := env.positions.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, domain.FrameID("f030"), saved.Frames[saved.CurrentIndex].ID)
}

func TestFramesJump_NothingThere(t *testing.T) {
	setupTestServices(t, 5)

	_, err := runCommand(t, "frames", "jump", "2020-01-01")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}

func TestFramesJump_BadTime(t *testing.T) {
	setupTestServices(t, 5)

	_, err := runCommand(t, "frames", "jump", "whenever")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFramesCmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := runCommand(t, "frames", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeline service not configured")
}

func TestDeleteCmd(t *testing.T) {
	env := setupTestServices(t, 5)

	out, err := runCommand(t, "delete", "f001", "f003")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted f001")
	assert.Contains(t, out, "Deleted f003")

	env.viewer.WaitIdle()
	assert.Equal(t, 3, env.store.Len())
	for _, f := range env.viewer.Frames() {
		assert.NotContains(t, []domain.FrameID{"f001", "f003"}, f.ID)
	}
}

func TestDeleteCmd_UnknownFrame(t *testing.T) {
	setupTestServices(t, 2)

	_, err := runCommand(t, "delete", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCmd_RequiresArgs(t *testing.T) {
	setupTestServices(t, 0)

	_, err := runCommand(t, "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestVisibleFrames_Centres(t *testing.T) {
	setupTestServices(t, 20)
	require.NoError(t, timelineService.LoadInitial(context.Background()))
	timelineService.NavigateTo(10)
	framesLimit = 4

	frames, cur := visibleFrames()

	require.Len(t, frames, 4)
	assert.Equal(t, domain.FrameID("f008"), frames[0].ID)
	assert.Equal(t, 2, cur)
	assert.Equal(t, domain.FrameID("f010"), frames[cur].ID)
}
