package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/core/domain"
)

// failingSaver has a current frame but cannot persist it.
type failingSaver struct{}

func (failingSaver) Current() (domain.FrameRef, bool) {
	return domain.FrameRef{ID: "f1"}, true
}

func (failingSaver) SaveMarker(context.Context) error {
	return domain.ErrStoreUnavailable
}

func newAutosaveViewer(t *testing.T, n int) (*Viewer, *PositionCache) {
	t.Helper()
	cache, _ := newTestCache(memory.NewPositionStore(), 0)
	v := newTestViewer(t, newStore(makeFrames(n)), cache)
	require.NoError(t, v.LoadInitial(context.Background()))
	v.WaitIdle()
	return v, cache
}

func TestAutosaver_SaveNow_WritesMarkerForCurrentFrame(t *testing.T) {
	ctx := context.Background()
	v, cache := newAutosaveViewer(t, 10)
	a := NewAutosaver(v, time.Hour)

	assert.True(t, a.SaveNow(ctx))

	pos, ok := cache.Load(ctx)
	require.True(t, ok)
	assert.True(t, pos.IsMarker())
	assert.True(t, base.Add(9*time.Minute).Equal(pos.Timestamp))
	assert.Equal(t, 9, pos.CurrentIndex)
}

func TestAutosaver_SaveNow_SkipsUnchangedFrame(t *testing.T) {
	ctx := context.Background()
	v, _ := newAutosaveViewer(t, 10)
	a := NewAutosaver(v, time.Hour)

	require.True(t, a.SaveNow(ctx))
	assert.False(t, a.SaveNow(ctx))

	v.Step(-1)
	assert.True(t, a.SaveNow(ctx))
}

func TestAutosaver_SaveNow_EmptyWindow(t *testing.T) {
	v := newTestViewer(t, newStore(nil), nil)
	a := NewAutosaver(v, time.Hour)

	assert.False(t, a.SaveNow(context.Background()))
}

func TestAutosaver_SaveNow_RetriesAfterFailure(t *testing.T) {
	a := NewAutosaver(failingSaver{}, time.Hour)

	assert.False(t, a.SaveNow(context.Background()))
	assert.False(t, a.SaveNow(context.Background()))
	assert.Equal(t, domain.FrameID(""), a.last)
}

func TestAutosaver_DefaultInterval(t *testing.T) {
	a := NewAutosaver(failingSaver{}, 0)

	assert.Equal(t, DefaultAutosaveInterval, a.interval)
}

func TestAutosaver_StartStop(t *testing.T) {
	v, cache := newAutosaveViewer(t, 5)
	a := NewAutosaver(v, 5*time.Millisecond)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.last == "f0004"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Stop())
	assert.NoError(t, <-errCh)
	assert.NoError(t, a.Stop())

	pos, ok := cache.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, 4, pos.CurrentIndex)
}

func TestAutosaver_StartReturnsOnCancel(t *testing.T) {
	a := NewAutosaver(failingSaver{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.NoError(t, a.Stop())
}

func TestViewer_SaveMarker_WithoutPositions(t *testing.T) {
	v := newTestViewer(t, newStore(makeFrames(3)), nil)
	require.NoError(t, v.LoadInitial(context.Background()))

	assert.NoError(t, v.SaveMarker(context.Background()))
}
