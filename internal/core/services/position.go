package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/logger"
)

// PositionCache saves and restores a single-use resume snapshot.
// A snapshot is only handed back if it matches the current schema and
// data-source versions and is younger than the expiry. Every Load consumes
// the stored snapshot, whether or not it was usable.
type PositionCache struct {
	store    driven.PositionStore
	versions driven.DataSourceVersioner
	expiry   time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewPositionCache creates a position cache. versions may be nil, in which
// case the data-source version is always 0.
func NewPositionCache(store driven.PositionStore, versions driven.DataSourceVersioner, expiry time.Duration) *PositionCache {
	return &PositionCache{
		store:    store,
		versions: versions,
		expiry:   expiry,
		now:      time.Now,
		log:      logger.For("position"),
	}
}

// Save writes a full window snapshot.
func (c *PositionCache) Save(ctx context.Context, frames []domain.FrameRef, index int) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: empty window", domain.ErrInvalidInput)
	}
	if err := domain.ValidateWindow(frames, index); err != nil {
		return err
	}
	pos := c.record(frames[index].Timestamp, index)
	pos.Frames = append([]domain.FrameRef(nil), frames...)
	return c.store.Save(ctx, pos)
}

// SaveMarker writes a lightweight record holding only a timestamp and index.
func (c *PositionCache) SaveMarker(ctx context.Context, ts time.Time, index int) error {
	return c.store.Save(ctx, c.record(ts, index))
}

func (c *PositionCache) record(ts time.Time, index int) *domain.PersistedPosition {
	return &domain.PersistedPosition{
		SchemaVersion:     domain.PositionSchemaVersion,
		DataSourceVersion: c.version(),
		SavedAt:           c.now().Unix(),
		CurrentIndex:      index,
		Timestamp:         ts,
	}
}

// Load returns the stored snapshot if it is still valid. The stored copy
// is deleted in every case. Corrupt snapshots count as a miss.
func (c *PositionCache) Load(ctx context.Context) (*domain.PersistedPosition, bool) {
	pos, err := c.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false
	}
	c.discard(ctx)
	if err != nil {
		c.log.Warn("position snapshot unreadable", "error", err)
		return nil, false
	}

	if pos.SchemaVersion != domain.PositionSchemaVersion {
		c.log.Debug("snapshot schema mismatch", "saved", pos.SchemaVersion, "current", domain.PositionSchemaVersion)
		return nil, false
	}
	if v := c.version(); pos.DataSourceVersion != v {
		c.log.Debug("snapshot data-source mismatch", "saved", pos.DataSourceVersion, "current", v)
		return nil, false
	}
	if age := c.now().Sub(pos.SavedTime()); age > c.expiry {
		c.log.Debug("snapshot expired", "age", age)
		return nil, false
	}
	if !pos.IsMarker() {
		if err := domain.ValidateWindow(pos.Frames, pos.CurrentIndex); err != nil {
			c.log.Warn("snapshot window invalid", "error", err)
			return nil, false
		}
	}
	return pos, true
}

// Clear deletes any stored snapshot.
func (c *PositionCache) Clear(ctx context.Context) error {
	return c.store.Delete(ctx)
}

func (c *PositionCache) discard(ctx context.Context) {
	if err := c.store.Delete(ctx); err != nil {
		c.log.Warn("failed to delete position snapshot", "error", err)
	}
}

func (c *PositionCache) version() int64 {
	if c.versions == nil {
		return 0
	}
	return c.versions.DataSourceVersion()
}
