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
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
	"github.com/custodia-labs/rewind/internal/logger"
)

// Ensure Viewer implements the interface.
var _ driving.TimelineService = (*Viewer)(nil)

// Viewer ties the window, image cache, selection engine and position cache
// together. It notices current-frame changes lazily: every read or
// navigation compares the current frame with the one it last prepared, and
// on a change resets the selection and schedules image decoding and OCR
// fetching for the new frame. Those results are applied only if the same
// frame is still current in the same window generation.
type Viewer struct {
	store     driven.FrameStore
	window    *WindowBuffer
	images    *ImageCache
	selection *SelectionEngine
	positions *PositionCache
	throttle  *DecodeThrottle
	log       *slog.Logger

	mu       sync.Mutex
	shown    domain.FrameID
	shownGen uint64
	imageErr error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewViewer builds a viewer over a frame store. positions may be nil.
func NewViewer(store driven.FrameStore, positions *PositionCache, settings domain.AppSettings) *Viewer {
	ctx, cancel := context.WithCancel(context.Background())
	window := NewWindowBuffer(store, positions, settings.Timeline)
	return &Viewer{
		store:     store,
		window:    window,
		images:    NewImageCache(settings.Cache.MaxImages, window.Contains),
		selection: NewSelectionEngine(),
		positions: positions,
		throttle:  NewDecodeThrottle(settings.Decode),
		log:       logger.For("viewer"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Window returns the underlying window buffer.
func (v *Viewer) Window() *WindowBuffer {
	return v.window
}

// LoadInitial restores the last position or loads the newest frames.
func (v *Viewer) LoadInitial(ctx context.Context) error {
	err := v.window.LoadInitial(ctx)
	v.sync()
	return err
}

// NavigateTo moves to a window index.
func (v *Viewer) NavigateTo(index int) {
	v.window.NavigateTo(index)
	v.sync()
}

// Step moves the current index by delta.
func (v *Viewer) Step(delta int) {
	v.NavigateTo(v.window.CurrentIndex() + delta)
}

// JumpToTimestamp replaces the window around t.
func (v *Viewer) JumpToTimestamp(ctx context.Context, t time.Time) error {
	err := v.window.JumpToTimestamp(ctx, t)
	v.sync()
	return err
}

// JumpToFrame makes the given frame current.
func (v *Viewer) JumpToFrame(ctx context.Context, id domain.FrameID) error {
	err := v.window.JumpToFrame(ctx, id)
	v.sync()
	return err
}

// DeleteFrame removes a frame from the window, the image cache and the store.
func (v *Viewer) DeleteFrame(id domain.FrameID) error {
	return v.DeleteRange([]domain.FrameID{id})
}

// DeleteRange removes several frames.
func (v *Viewer) DeleteRange(ids []domain.FrameID) error {
	if err := v.window.DeleteRange(ids); err != nil {
		return err
	}
	for _, id := range ids {
		v.images.Remove(id)
	}
	v.sync()
	return nil
}

// Current returns the current frame.
func (v *Viewer) Current() (domain.FrameRef, bool) {
	return v.window.Current()
}

// CurrentIndex returns the current window index.
func (v *Viewer) CurrentIndex() int {
	return v.window.CurrentIndex()
}

// Frames returns a copy of the window.
func (v *Viewer) Frames() []domain.FrameRef {
	return v.window.Frames()
}

// Segments returns the window grouped by segment.
func (v *Viewer) Segments() []domain.SegmentSpan {
	return v.window.Segments()
}

// State returns the paging state.
func (v *Viewer) State() domain.LoadState {
	return v.window.State()
}

// Err returns the last load or jump error.
func (v *Viewer) Err() error {
	return v.window.Err()
}

// NoData reports whether the store was empty on the last load.
func (v *Viewer) NoData() bool {
	return v.window.NoData()
}

// CurrentImage returns the current frame's image. A nil image with a nil
// error means decoding has not finished yet.
func (v *Viewer) CurrentImage() ([]byte, error) {
	v.sync()
	cur, ok := v.window.Current()
	if !ok {
		return nil, domain.ErrEmptyResult
	}
	if img := v.images.Get(cur.ID); img != nil {
		return img, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return nil, v.imageErr
}

// Image returns the image of any frame, using the cache when possible.
// Unlike CurrentImage it decodes synchronously.
func (v *Viewer) Image(ctx context.Context, id domain.FrameID) ([]byte, error) {
	if img := v.images.Get(id); img != nil {
		return img, nil
	}
	frame, err := v.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	img, err := v.store.DecodeImage(ctx, *frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecodeFailure, id, err)
	}
	return img, nil
}

// FrameText returns the OCR text of any frame, one visual line per line.
func (v *Viewer) FrameText(ctx context.Context, id domain.FrameID) (string, error) {
	frame, err := v.store.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	nodes, err := v.store.OCRNodes(ctx, *frame)
	if err != nil {
		return "", fmt.Errorf("%w: ocr nodes: %w", domain.ErrStoreUnavailable, err)
	}
	return FormatLines(nodes), nil
}

// Selection returns the selection engine, prepared for the current frame.
func (v *Viewer) Selection() driving.SelectionService {
	v.sync()
	return v.selection
}

// SavePosition persists the window so the next start resumes here.
// An empty window clears any stored snapshot instead.
func (v *Viewer) SavePosition(ctx context.Context) error {
	if v.positions == nil {
		return nil
	}
	frames, index := v.window.Snapshot()
	if len(frames) == 0 {
		return v.positions.Clear(ctx)
	}
	return v.positions.Save(ctx, frames, index)
}

// SaveMarker records only the current timestamp and index. It is cheap
// enough to run periodically while browsing.
func (v *Viewer) SaveMarker(ctx context.Context) error {
	if v.positions == nil {
		return nil
	}
	frames, index := v.window.Snapshot()
	if len(frames) == 0 {
		return nil
	}
	return v.positions.SaveMarker(ctx, frames[index].Timestamp, index)
}

// HandleDataSourceChanged reacts to a data-source toggle: cached images and
// the stored snapshot are dropped, in-flight work is discarded, and the
// window is re-centred on the previously displayed timestamp, or reloaded
// from the newest frames when nothing was displayed or nothing is left there.
func (v *Viewer) HandleDataSourceChanged(ctx context.Context, ev domain.DataSourceEvent) error {
	v.log.Debug("data source changed", "version", ev.Version)
	prev, hadFrame := v.window.Current()

	v.images.Clear()
	if v.positions != nil {
		if err := v.positions.Clear(ctx); err != nil {
			v.log.Warn("failed to clear position snapshot", "error", err)
		}
	}
	v.window.Invalidate()
	v.mu.Lock()
	v.shown = ""
	v.imageErr = nil
	v.mu.Unlock()

	if hadFrame {
		err := v.window.JumpToTimestamp(ctx, prev.Timestamp)
		if err == nil || !errors.Is(err, domain.ErrEmptyResult) {
			v.sync()
			return err
		}
	}
	err := v.window.LoadMostRecent(ctx)
	v.sync()
	return err
}

// Run applies data-source events until ctx is done or events is closed.
func (v *Viewer) Run(ctx context.Context, events <-chan domain.DataSourceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := v.HandleDataSourceChanged(ctx, ev); err != nil {
				v.log.Warn("re-centre after data-source change failed", "error", err)
			}
		}
	}
}

// sync prepares state for the current frame if it changed since last time.
func (v *Viewer) sync() {
	cur, ok := v.window.Current()
	gen := v.window.Generation()

	v.mu.Lock()
	defer v.mu.Unlock()
	if !ok {
		if v.shown != "" {
			v.shown = ""
			v.imageErr = nil
			v.selection.SetNodes("", nil)
		}
		return
	}
	if cur.ID == v.shown && gen == v.shownGen {
		return
	}
	sameFrame := cur.ID == v.shown
	v.shown, v.shownGen = cur.ID, gen
	if !sameFrame {
		v.imageErr = nil
		v.selection.SetNodes(cur.ID, nil)
	}

	if v.ctx.Err() != nil {
		return
	}
	// a new generation discards work in flight, so reschedule what is missing
	if v.images.Get(cur.ID) == nil {
		v.wg.Add(1)
		go v.decode(cur, gen)
	}
	if !sameFrame || len(v.selection.Nodes()) == 0 {
		v.wg.Add(1)
		go v.fetchNodes(cur, gen)
	}
}

// isCurrent reports whether frame id is still current in generation gen.
func (v *Viewer) isCurrent(id domain.FrameID, gen uint64) bool {
	cur, ok := v.window.Current()
	return ok && cur.ID == id && v.window.Generation() == gen
}

func (v *Viewer) decode(frame domain.FrameRef, gen uint64) {
	defer v.wg.Done()
	if err := v.throttle.Wait(v.ctx); err != nil {
		return
	}
	if !v.isCurrent(frame.ID, gen) {
		return
	}
	img, err := v.store.DecodeImage(v.ctx, frame)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isCurrent(frame.ID, gen) || v.shown != frame.ID {
		v.log.Debug("discarding stale decode", "frame", frame.ID)
		return
	}
	if err != nil {
		v.throttle.RecordFailure()
		v.images.Remove(frame.ID)
		v.imageErr = fmt.Errorf("%w: %s: %w", domain.ErrDecodeFailure, frame.ID, err)
		v.log.Warn("decode failed", "frame", frame.ID, "error", err)
		return
	}
	v.images.Put(frame.ID, img)
}

func (v *Viewer) fetchNodes(frame domain.FrameRef, gen uint64) {
	defer v.wg.Done()
	nodes, err := v.store.OCRNodes(v.ctx, frame)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isCurrent(frame.ID, gen) || v.shown != frame.ID {
		return
	}
	if err != nil {
		v.log.Warn("ocr fetch failed", "frame", frame.ID, "error", err)
		return
	}
	v.selection.SetNodes(frame.ID, nodes)
}

// WaitIdle blocks until background loads, decodes and fetches finish.
func (v *Viewer) WaitIdle() {
	v.window.Wait()
	v.wg.Wait()
}

// Close stops background work.
func (v *Viewer) Close() {
	v.cancel()
	v.wg.Wait()
	v.window.Close()
}
