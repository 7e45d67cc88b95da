package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/logger"
)

// DefaultAutosaveInterval is how often the resume marker is refreshed.
const DefaultAutosaveInterval = 30 * time.Second

// markerSaver is the part of the viewer the autosaver drives.
type markerSaver interface {
	Current() (domain.FrameRef, bool)
	SaveMarker(ctx context.Context) error
}

// Autosaver periodically records a resume marker for the current frame so
// that a session ending without a clean shutdown still resumes nearby.
// It only writes when the current frame has changed since the last save.
type Autosaver struct {
	timeline markerSaver
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	last    domain.FrameID
}

// NewAutosaver creates an autosaver. A non-positive interval uses
// DefaultAutosaveInterval.
func NewAutosaver(timeline markerSaver, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{
		timeline: timeline,
		interval: interval,
		log:      logger.For("autosave"),
	}
}

// Start runs the save loop. It blocks until ctx is cancelled or Stop is called.
func (a *Autosaver) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	stopCh, done := a.stopCh, a.done
	a.mu.Unlock()

	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			a.SaveNow(ctx)
		}
	}
}

// Stop ends a running loop and waits for it to return.
func (a *Autosaver) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	close(a.stopCh)
	done := a.done
	a.mu.Unlock()

	<-done
	return nil
}

// SaveNow writes a marker if the current frame moved since the last save.
// It reports whether a marker was written.
func (a *Autosaver) SaveNow(ctx context.Context) bool {
	cur, ok := a.timeline.Current()
	if !ok {
		return false
	}

	a.mu.Lock()
	unchanged := cur.ID == a.last
	a.mu.Unlock()
	if unchanged {
		return false
	}

	if err := a.timeline.SaveMarker(ctx); err != nil {
		a.log.Warn("failed to save position marker", "error", err)
		return false
	}

	a.mu.Lock()
	a.last = cur.ID
	a.mu.Unlock()
	a.log.Debug("position marker saved", "frame", cur.ID)
	return true
}
