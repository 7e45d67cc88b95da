package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

func TestPositionStore_SaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPositionStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "position.json"), store.Path())
	ctx := context.Background()

	_, err = store.Load(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	pos := &domain.PersistedPosition{
		SchemaVersion: domain.PositionSchemaVersion,
		SavedAt:       ts.Unix(),
		CurrentIndex:  0,
		Timestamp:     ts,
		Frames:        []domain.FrameRef{{ID: "a", Timestamp: ts, SegmentID: "s"}},
	}
	require.NoError(t, store.Save(ctx, pos))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, pos, got)

	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, store.Delete(ctx), "deleting nothing is fine")
}

func TestPositionStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPositionStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{\"schema_version\":"), 0600))

	_, err = store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrCacheCorrupt)
}

func TestPositionStore_SaveNil(t *testing.T) {
	store, err := NewPositionStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, WriteAtomic(dest, []byte("v1"), 0600))
	require.NoError(t, WriteAtomic(dest, []byte("v2"), 0600))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
