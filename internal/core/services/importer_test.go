package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// captureTree lays out two image directories, a hidden directory, one
// video with a manifest and one without.
func captureTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "day1", "20260301-100000-a.png"), "png")
	writeFile(t, filepath.Join(dir, "day1", "20260301-100000-b.png"), "png")
	writeFile(t, filepath.Join(dir, "day1", "20260301-100000-a.ocr.json"),
		`[{"x":0.1,"y":0.1,"w":0.3,"h":0.05,"text":"hello"},{"x":0.5,"y":0.1,"w":0.3,"h":0.05,"text":"world"}]`)
	writeFile(t, filepath.Join(dir, "day2", "20260302-090000.jpg"), "jpg")
	writeFile(t, filepath.Join(dir, ".cache", "20260303-090000.png"), "png")
	writeFile(t, filepath.Join(dir, "rec", "clip.mp4"), "mp4")
	writeFile(t, filepath.Join(dir, "rec", "clip.frames.json"),
		`[{"index":0,"timestamp":"2026-03-04T08:00:00Z","ocr":[{"x":0,"y":0,"w":1,"h":0.1,"text":"title"}]},
		  {"index":30,"timestamp":"2026-03-04T08:00:01Z"}]`)
	writeFile(t, filepath.Join(dir, "rec", "orphan.mov"), "mov")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	return dir
}

func TestImporter_Import(t *testing.T) {
	dir := captureTree(t)
	store := memory.NewFrameStore()
	settings := NewSettingsService(memory.NewConfigStore())
	imp := NewImporter(store, settings)

	result, err := imp.Import(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 5, result.Frames)
	assert.Equal(t, 3, result.Segments)
	assert.Equal(t, 3, result.Nodes)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, int64(1), result.DataSourceVersion)
	assert.Equal(t, int64(1), settings.DataSourceVersion())
	assert.Equal(t, 5, store.Len())

	frames, err := store.MostRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	domain.ReverseFrames(frames)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	assert.True(t, first.Equal(frames[0].Timestamp))
	assert.True(t, first.Add(time.Millisecond).Equal(frames[1].Timestamp), "equal stamps are spread apart")
	assert.Equal(t, frames[0].SegmentID, frames[1].SegmentID)
	assert.NotEqual(t, frames[0].SegmentID, frames[2].SegmentID)

	assert.Equal(t, domain.LocatorImage, frames[0].Locator.Kind)
	assert.Equal(t, filepath.Join(dir, "day1", "20260301-100000-a.png"), frames[0].Locator.Path)

	video := frames[4]
	assert.Equal(t, domain.LocatorVideo, video.Locator.Kind)
	assert.Equal(t, 30, video.Locator.FrameIndex)

	nodes, err := store.OCRNodes(context.Background(), frames[0])
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "hello", nodes[0].Text)
	assert.Equal(t, frames[0].ID, nodes[0].FrameID)
	assert.Equal(t, domain.Rect{X: 0.5, Y: 0.1, W: 0.3, H: 0.05}, nodes[1].Box)
}

func TestImporter_Import_IsIdempotent(t *testing.T) {
	dir := captureTree(t)
	store := memory.NewFrameStore()
	imp := NewImporter(store, nil)

	_, err := imp.Import(context.Background(), dir)
	require.NoError(t, err)
	before, _ := store.MostRecent(context.Background(), 10)

	_, err = imp.Import(context.Background(), dir)
	require.NoError(t, err)
	after, _ := store.MostRecent(context.Background(), 10)

	assert.Equal(t, frameIDs(before), frameIDs(after))
}

func TestImporter_Import_EmptyDirKeepsVersion(t *testing.T) {
	settings := NewSettingsService(memory.NewConfigStore())
	imp := NewImporter(memory.NewFrameStore(), settings)

	result, err := imp.Import(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Zero(t, result.Frames)
	assert.Zero(t, settings.DataSourceVersion())
}

func TestImporter_Import_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "frame.png")
	writeFile(t, file, "png")
	imp := NewImporter(memory.NewFrameStore(), nil)

	_, err := imp.Import(context.Background(), file)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = imp.Import(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestImporter_Import_BadSidecarStillImportsFrame(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "20260301-100000.png"), "png")
	writeFile(t, filepath.Join(dir, "20260301-100000.ocr.json"), "{not json")
	store := memory.NewFrameStore()

	result, err := NewImporter(store, nil).Import(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Frames)
	assert.Zero(t, result.Nodes)
}

func TestImporter_Import_Cancelled(t *testing.T) {
	dir := captureTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(memory.NewFrameStore(), nil).Import(ctx, dir)

	assert.ErrorIs(t, err, context.Canceled)
}
