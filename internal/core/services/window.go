package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/logger"
)

// WindowBuffer holds a bounded, time-ordered slice of frames and a current
// index into it. It extends itself lazily in either direction as the index
// approaches an edge and trims the opposite side to stay within MaxFrames.
//
// All state is guarded by one mutex. Background loads run in their own
// goroutines and commit under that mutex only if the generation they
// captured still matches; every window replacement bumps the generation.
type WindowBuffer struct {
	store     driven.FrameStore
	positions *PositionCache
	cfg       domain.TimelineSettings
	log       *slog.Logger

	mu     sync.Mutex
	frames []domain.FrameRef
	index  int
	state  domain.LoadState
	gen    uint64
	err    error
	noData bool

	dirty    bool
	segments []domain.SegmentSpan
	ids      map[domain.FrameID]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWindowBuffer creates an empty window. positions may be nil, in which
// case LoadInitial always starts from the most recent frames.
func NewWindowBuffer(store driven.FrameStore, positions *PositionCache, cfg domain.TimelineSettings) *WindowBuffer {
	ctx, cancel := context.WithCancel(context.Background())
	return &WindowBuffer{
		store:     store,
		positions: positions,
		cfg:       cfg,
		log:       logger.For("window"),
		state:     domain.InitialLoadState(),
		dirty:     true,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// LoadInitial seeds the window from a valid position snapshot, or from the
// most recent batch when there is none. A marker snapshot re-queries the
// window around its timestamp.
func (w *WindowBuffer) LoadInitial(ctx context.Context) error {
	if w.positions != nil {
		if pos, ok := w.positions.Load(ctx); ok {
			if !pos.IsMarker() {
				w.log.Debug("restored window from snapshot", "frames", len(pos.Frames), "index", pos.CurrentIndex)
				w.Replace(pos.Frames, pos.CurrentIndex)
				return nil
			}
			err := w.JumpToTimestamp(ctx, pos.Timestamp)
			if err == nil {
				return nil
			}
			if !errors.Is(err, domain.ErrEmptyResult) {
				return err
			}
			w.log.Debug("marker timestamp has no frames, loading most recent", "timestamp", pos.Timestamp)
		}
	}
	return w.LoadMostRecent(ctx)
}

// LoadMostRecent replaces the window with the newest LoadBatchSize frames
// and selects the newest one. An empty store leaves an empty window in the
// NoData state.
func (w *WindowBuffer) LoadMostRecent(ctx context.Context) error {
	frames, err := w.store.MostRecent(ctx, w.cfg.LoadBatchSize)
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.err = fmt.Errorf("%w: most recent: %w", domain.ErrStoreUnavailable, err)
		return w.err
	}
	frames = domain.NormalizeFrames(frames)
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(frames) == 0 {
		w.replaceLocked(nil, 0, domain.LoadState{})
		w.noData = true
		return nil
	}
	w.replaceLocked(frames, len(frames)-1, domain.LoadState{HasMoreOlder: true})
	return nil
}

// Replace swaps in a new window. Frames are normalised and the index is
// clamped. LoadState resets to "more in both directions".
func (w *WindowBuffer) Replace(frames []domain.FrameRef, index int) {
	frames = domain.NormalizeFrames(frames)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceLocked(frames, index, domain.InitialLoadState())
}

func (w *WindowBuffer) replaceLocked(frames []domain.FrameRef, index int, state domain.LoadState) {
	w.frames = frames
	w.index = domain.ClampIndex(index, len(frames))
	w.state = state
	w.gen++
	w.err = nil
	w.noData = len(frames) == 0
	w.dirty = true
}

// NavigateTo moves the current index, clamped to the window, and starts
// background loads when the index nears an edge.
func (w *WindowBuffer) NavigateTo(index int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		return
	}
	index = domain.ClampIndex(index, len(w.frames))
	if index == w.index {
		return
	}
	w.index = index
	w.dirty = true
	w.checkAndLoadMoreLocked()
}

// CheckAndLoadMore starts a background load in each direction whose edge
// is within LoadThreshold of the current index.
func (w *WindowBuffer) CheckAndLoadMore() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.checkAndLoadMoreLocked()
}

func (w *WindowBuffer) checkAndLoadMoreLocked() {
	n := len(w.frames)
	if n == 0 || w.ctx.Err() != nil {
		return
	}
	if w.index < w.cfg.LoadThreshold && w.state.HasMoreOlder && !w.state.IsLoadingOlder {
		w.spawnLocked(domain.DirectionOlder)
	}
	if w.index > n-w.cfg.LoadThreshold && w.state.HasMoreNewer && !w.state.IsLoadingNewer {
		w.spawnLocked(domain.DirectionNewer)
	}
}

func (w *WindowBuffer) spawnLocked(d domain.Direction) {
	w.setLoadingLocked(d, true)
	gen, edge := w.gen, w.edgeLocked(d)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.fetchAndCommit(w.ctx, d, gen, edge); err != nil {
			w.log.Warn("background load failed", "direction", d, "error", err)
		}
	}()
}

// LoadOlder fetches LoadBatchSize frames strictly before the oldest frame
// and prepends them, shifting the index so the current frame stays put.
// It is a no-op while an older load is in flight or nothing more exists.
func (w *WindowBuffer) LoadOlder(ctx context.Context) error {
	return w.load(ctx, domain.DirectionOlder)
}

// LoadNewer fetches LoadBatchSize frames strictly after the newest frame
// and appends them.
func (w *WindowBuffer) LoadNewer(ctx context.Context) error {
	return w.load(ctx, domain.DirectionNewer)
}

func (w *WindowBuffer) load(ctx context.Context, d domain.Direction) error {
	w.mu.Lock()
	if len(w.frames) == 0 || w.state.IsLoading(d) || !w.state.HasMore(d) {
		w.mu.Unlock()
		return nil
	}
	w.setLoadingLocked(d, true)
	gen, edge := w.gen, w.edgeLocked(d)
	w.mu.Unlock()
	return w.fetchAndCommit(ctx, d, gen, edge)
}

func (w *WindowBuffer) fetchAndCommit(ctx context.Context, d domain.Direction, gen uint64, edge time.Time) error {
	var (
		frames []domain.FrameRef
		err    error
	)
	if d == domain.DirectionOlder {
		frames, err = w.store.BeforeQuery(ctx, edge, w.cfg.LoadBatchSize)
	} else {
		frames, err = w.store.AfterQuery(ctx, edge, w.cfg.LoadBatchSize)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		w.log.Debug("discarding stale load", "direction", d, "generation", gen)
		return nil
	}
	w.setLoadingLocked(d, false)
	if err != nil {
		w.err = fmt.Errorf("%w: load %s: %w", domain.ErrStoreUnavailable, d, err)
		return w.err
	}
	if len(w.frames) == 0 {
		return nil
	}

	frames = w.beyondEdgeLocked(domain.NormalizeFrames(frames), d)
	if len(frames) == 0 {
		if d == domain.DirectionOlder {
			w.state.HasMoreOlder = false
			w.state.HasReachedAbsoluteStart = true
		} else {
			w.state.HasMoreNewer = false
			w.state.HasReachedAbsoluteEnd = true
		}
		return nil
	}

	if d == domain.DirectionOlder {
		w.frames = append(frames, w.frames...)
		w.index = domain.ClampIndex(w.index+len(frames), len(w.frames))
	} else {
		w.frames = append(w.frames, frames...)
	}
	w.dirty = true
	w.log.Debug("extended window", "direction", d, "added", len(frames), "len", len(w.frames))
	w.trimLocked(d)
	return nil
}

// beyondEdgeLocked keeps only frames strictly outside the current window
// edge in direction d that are not already present.
func (w *WindowBuffer) beyondEdgeLocked(frames []domain.FrameRef, d domain.Direction) []domain.FrameRef {
	if len(w.frames) == 0 {
		return frames
	}
	edge := w.edgeLocked(d)
	present := w.idsLocked()
	out := frames[:0]
	for _, f := range frames {
		if _, dup := present[f.ID]; dup {
			continue
		}
		if d == domain.DirectionOlder && !f.Timestamp.Before(edge) {
			continue
		}
		if d == domain.DirectionNewer && !f.Timestamp.After(edge) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Trim drops frames from the side opposite preserve until the window is
// within MaxFrames.
func (w *WindowBuffer) Trim(preserve domain.Direction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trimLocked(preserve)
}

func (w *WindowBuffer) trimLocked(preserve domain.Direction) {
	excess := len(w.frames) - w.cfg.MaxFrames
	if excess <= 0 {
		return
	}
	if preserve == domain.DirectionNewer {
		w.frames = append([]domain.FrameRef(nil), w.frames[excess:]...)
		w.index = max(0, w.index-excess)
		if !w.state.HasReachedAbsoluteStart {
			w.state.HasMoreOlder = true
		}
	} else {
		w.frames = append([]domain.FrameRef(nil), w.frames[:w.cfg.MaxFrames]...)
		w.index = domain.ClampIndex(w.index, len(w.frames))
		if !w.state.HasReachedAbsoluteEnd {
			w.state.HasMoreNewer = true
		}
	}
	w.dirty = true
	w.log.Debug("trimmed window", "preserve", preserve, "dropped", excess)
}

// JumpToTimestamp replaces the window with up to MaxFrames frames within
// JumpRadius of t, centred on t, and selects the frame nearest t (ties go
// to the earlier frame). When no frames exist there it returns
// domain.ErrEmptyResult and leaves the current window untouched.
func (w *WindowBuffer) JumpToTimestamp(ctx context.Context, t time.Time) error {
	frames, err := w.aroundTimestamp(ctx, t)
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.err = fmt.Errorf("%w: jump: %w", domain.ErrStoreUnavailable, err)
		return w.err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(frames) == 0 {
		w.err = domain.ErrEmptyResult
		return domain.ErrEmptyResult
	}
	w.replaceLocked(frames, nearestIndex(frames, t), domain.InitialLoadState())
	return nil
}

// aroundTimestamp fetches the frames within JumpRadius of t, keeping at
// most MaxFrames of them. Half the budget goes to frames before t; any
// share one side cannot use goes to the other.
func (w *WindowBuffer) aroundTimestamp(ctx context.Context, t time.Time) ([]domain.FrameRef, error) {
	radius, limit := w.cfg.JumpRadius, w.cfg.MaxFrames
	older, err := w.store.BeforeQuery(ctx, t, limit)
	if err != nil {
		return nil, fmt.Errorf("before %s: %w", t.Format(time.RFC3339), err)
	}
	newer, err := w.store.RangeQuery(ctx, t, t.Add(radius), limit)
	if err != nil {
		return nil, fmt.Errorf("range from %s: %w", t.Format(time.RFC3339), err)
	}

	from := t.Add(-radius)
	older = domain.NormalizeFrames(older)
	for len(older) > 0 && older[0].Timestamp.Before(from) {
		older = older[1:]
	}
	newer = domain.NormalizeFrames(newer)

	nOlder := min(len(older), limit/2)
	nNewer := min(len(newer), limit-nOlder)
	nOlder = min(len(older), limit-nNewer)

	frames := make([]domain.FrameRef, 0, nOlder+nNewer)
	frames = append(frames, older[len(older)-nOlder:]...)
	frames = append(frames, newer[:nNewer]...)
	return frames, nil
}

// JumpToFrame makes the given frame current. A frame inside the window is
// navigated to directly; any other frame triggers a jump to its timestamp.
// Returns domain.ErrNotFound if the frame is still not in the window.
func (w *WindowBuffer) JumpToFrame(ctx context.Context, id domain.FrameID) error {
	w.mu.Lock()
	i, ok := w.idsLocked()[id]
	w.mu.Unlock()
	if ok {
		w.NavigateTo(i)
		return nil
	}

	frame, err := w.store.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := w.JumpToTimestamp(ctx, frame.Timestamp); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok = w.idsLocked()[id]
	if !ok {
		return fmt.Errorf("%w: frame %s not in window around %s", domain.ErrNotFound, id, frame.Timestamp.Format(time.RFC3339))
	}
	w.index = i
	w.dirty = true
	return nil
}

func nearestIndex(frames []domain.FrameRef, t time.Time) int {
	best, bestDist := 0, time.Duration(-1)
	for i, f := range frames {
		d := f.Timestamp.Sub(t)
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// DeleteFrame removes one frame. See DeleteRange.
func (w *WindowBuffer) DeleteFrame(id domain.FrameID) error {
	return w.DeleteRange([]domain.FrameID{id})
}

// DeleteRange removes the given frames from the window immediately, keeps
// the index on the same frame where possible, and deletes them from the
// store in the background. A store failure is logged; the frames are not
// restored. A delete that empties the window drops loads in flight; if
// frames remain outside it, the newest batch is loaded once the store
// delete finishes. Returns domain.ErrNotFound if none of the ids are in
// the window.
func (w *WindowBuffer) DeleteRange(ids []domain.FrameID) error {
	drop := make(map[domain.FrameID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	w.mu.Lock()
	var removed []domain.FrameRef
	kept := make([]domain.FrameRef, 0, len(w.frames))
	before := 0
	for i, f := range w.frames {
		if _, ok := drop[f.ID]; ok {
			removed = append(removed, f)
			if i < w.index {
				before++
			}
			continue
		}
		kept = append(kept, f)
	}
	if len(removed) == 0 {
		w.mu.Unlock()
		return domain.ErrNotFound
	}
	w.frames = kept
	w.index = domain.ClampIndex(w.index-before, len(kept))
	w.dirty = true
	reload, gen := false, w.gen
	if len(kept) == 0 {
		// loads in flight were aimed at edges that no longer exist
		reload = w.state.HasMoreOlder || w.state.HasMoreNewer
		w.gen++
		gen = w.gen
		w.state = domain.LoadState{}
		w.noData = !reload
	}
	w.mu.Unlock()

	// deletes outlive Close so a quit right after a delete still commits it
	ctx := context.WithoutCancel(w.ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		var err error
		if len(removed) == 1 {
			err = w.store.Delete(ctx, removed[0])
		} else {
			err = w.store.DeleteMany(ctx, removed)
		}
		if err != nil {
			w.log.Warn("store delete failed", "frames", len(removed), "error", err)
		}
		if reload && w.ctx.Err() == nil {
			w.reloadEmptied(ctx, gen)
		}
	}()
	return nil
}

// reloadEmptied refills a window that a delete emptied while frames remain
// outside it. It commits only if nothing replaced the window meanwhile.
func (w *WindowBuffer) reloadEmptied(ctx context.Context, gen uint64) {
	frames, err := w.store.MostRecent(ctx, w.cfg.LoadBatchSize)
	frames = domain.NormalizeFrames(frames)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || len(w.frames) != 0 {
		return
	}
	if err != nil {
		w.err = fmt.Errorf("%w: most recent: %w", domain.ErrStoreUnavailable, err)
		w.log.Warn("reloading emptied window failed", "error", err)
		return
	}
	if len(frames) == 0 {
		w.noData = true
		return
	}
	w.replaceLocked(frames, len(frames)-1, domain.LoadState{HasMoreOlder: true})
}

// Invalidate drops any in-flight loads without touching the frames.
func (w *WindowBuffer) Invalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.state.IsLoadingOlder = false
	w.state.IsLoadingNewer = false
}

func (w *WindowBuffer) setLoadingLocked(d domain.Direction, v bool) {
	if d == domain.DirectionOlder {
		w.state.IsLoadingOlder = v
	} else {
		w.state.IsLoadingNewer = v
	}
}

func (w *WindowBuffer) edgeLocked(d domain.Direction) time.Time {
	if d == domain.DirectionOlder {
		return w.frames[0].Timestamp
	}
	return w.frames[len(w.frames)-1].Timestamp
}

// rebuildLocked recomputes derived state when the dirty flag is set.
func (w *WindowBuffer) rebuildLocked() {
	if !w.dirty {
		return
	}
	w.ids = make(map[domain.FrameID]int, len(w.frames))
	w.segments = w.segments[:0]
	for i, f := range w.frames {
		w.ids[f.ID] = i
		n := len(w.segments)
		if n > 0 && w.segments[n-1].SegmentID == f.SegmentID {
			w.segments[n-1].EndIndex = i
			w.segments[n-1].End = f.Timestamp
			continue
		}
		w.segments = append(w.segments, domain.SegmentSpan{
			SegmentID:  f.SegmentID,
			StartIndex: i,
			EndIndex:   i,
			Start:      f.Timestamp,
			End:        f.Timestamp,
		})
	}
	w.dirty = false
}

func (w *WindowBuffer) idsLocked() map[domain.FrameID]int {
	w.rebuildLocked()
	return w.ids
}

// Segments returns contiguous runs of frames sharing a segment.
func (w *WindowBuffer) Segments() []domain.SegmentSpan {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rebuildLocked()
	return append([]domain.SegmentSpan(nil), w.segments...)
}

// Contains reports whether a frame is in the window.
func (w *WindowBuffer) Contains(id domain.FrameID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.idsLocked()[id]
	return ok
}

// Current returns the current frame.
func (w *WindowBuffer) Current() (domain.FrameRef, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		return domain.FrameRef{}, false
	}
	return w.frames[w.index], true
}

// CurrentIndex returns the current index (0 for an empty window).
func (w *WindowBuffer) CurrentIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

// Len returns the window length.
func (w *WindowBuffer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.frames)
}

// Frames returns a copy of the window.
func (w *WindowBuffer) Frames() []domain.FrameRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.FrameRef(nil), w.frames...)
}

// Snapshot returns a copy of the window together with the current index.
func (w *WindowBuffer) Snapshot() ([]domain.FrameRef, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.FrameRef(nil), w.frames...), w.index
}

// State returns the paging state.
func (w *WindowBuffer) State() domain.LoadState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Generation returns the window generation.
func (w *WindowBuffer) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

// Err returns the last load or jump error, cleared by the next successful
// window replacement.
func (w *WindowBuffer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// NoData reports whether the store is known to hold no frames: the last
// most-recent load found none, or a delete emptied a window that already
// reached both ends of the timeline.
func (w *WindowBuffer) NoData() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.noData
}

// Wait blocks until all background loads and deletes have finished.
func (w *WindowBuffer) Wait() {
	w.wg.Wait()
}

// Close cancels in-flight loads and waits for background work.
func (w *WindowBuffer) Close() {
	w.cancel()
	w.wg.Wait()
}
