package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/core/domain"
)

var base = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// makeFrames returns n frames one minute apart starting at base.
func makeFrames(n int) []domain.FrameRef {
	frames := make([]domain.FrameRef, n)
	for i := range frames {
		frames[i] = domain.FrameRef{
			ID:        domain.FrameID(fmt.Sprintf("f%04d", i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			SegmentID: "seg",
		}
	}
	return frames
}

func newStore(frames []domain.FrameRef) *memory.FrameStore {
	store := memory.NewFrameStore()
	store.Add(frames...)
	return store
}

func testTimeline() domain.TimelineSettings {
	return domain.DefaultAppSettings().Timeline
}

func frameIDs(frames []domain.FrameRef) []domain.FrameID {
	out := make([]domain.FrameID, len(frames))
	for i, f := range frames {
		out[i] = f.ID
	}
	return out
}

// gatedStore blocks the first BeforeQuery and every DecodeImage until the
// gate is opened. Later BeforeQuery calls, such as the one a jump makes,
// pass straight through.
type gatedStore struct {
	*memory.FrameStore
	gate        chan struct{}
	entered     chan struct{}
	beforeCalls atomic.Int32
}

func newGatedStore(frames []domain.FrameRef) *gatedStore {
	return &gatedStore{
		FrameStore: newStore(frames),
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 16),
	}
}

func (s *gatedStore) BeforeQuery(ctx context.Context, ts time.Time, limit int) ([]domain.FrameRef, error) {
	if s.beforeCalls.Add(1) == 1 {
		s.entered <- struct{}{}
		<-s.gate
	}
	return s.FrameStore.BeforeQuery(ctx, ts, limit)
}

func (s *gatedStore) DecodeImage(ctx context.Context, frame domain.FrameRef) ([]byte, error) {
	s.entered <- struct{}{}
	<-s.gate
	return s.FrameStore.DecodeImage(ctx, frame)
}

func (s *gatedStore) open() { close(s.gate) }

// failingStore fails every query and delete with err.
type failingStore struct {
	*memory.FrameStore
	err error
}

func (s *failingStore) MostRecent(context.Context, int) ([]domain.FrameRef, error) {
	return nil, s.err
}

func (s *failingStore) BeforeQuery(context.Context, time.Time, int) ([]domain.FrameRef, error) {
	return nil, s.err
}

func (s *failingStore) RangeQuery(context.Context, time.Time, time.Time, int) ([]domain.FrameRef, error) {
	return nil, s.err
}

func (s *failingStore) Delete(context.Context, domain.FrameRef) error {
	return s.err
}

func (s *failingStore) DeleteMany(context.Context, []domain.FrameRef) error {
	return s.err
}

// ghostStore resolves one extra ID that no query ever returns, like an
// index row whose frame was removed underneath it.
type ghostStore struct {
	*memory.FrameStore
	ghost domain.FrameRef
}

func (s *ghostStore) ByID(ctx context.Context, id domain.FrameID) (*domain.FrameRef, error) {
	if id == s.ghost.ID {
		frame := s.ghost
		return &frame, nil
	}
	return s.FrameStore.ByID(ctx, id)
}

// makeDenseFrames returns n frames one second apart starting at base.
func makeDenseFrames(n int) []domain.FrameRef {
	frames := make([]domain.FrameRef, n)
	for i := range frames {
		frames[i] = domain.FrameRef{
			ID:        domain.FrameID(fmt.Sprintf("s%05d", i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			SegmentID: "seg",
		}
	}
	return frames
}

// staticVersion is a fixed data-source version.
type staticVersion int64

func (v staticVersion) DataSourceVersion() int64 { return int64(v) }
