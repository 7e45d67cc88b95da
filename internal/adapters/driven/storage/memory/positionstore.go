package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
)

// Ensure PositionStore implements the interface.
var _ driven.PositionStore = (*PositionStore)(nil)

// PositionStore is an in-memory implementation of driven.PositionStore.
type PositionStore struct {
	mu  sync.Mutex
	pos *domain.PersistedPosition
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{}
}

// Save replaces the stored snapshot.
func (s *PositionStore) Save(_ context.Context, pos *domain.PersistedPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pos
	cp.Frames = append([]domain.FrameRef(nil), pos.Frames...)
	s.pos = &cp
	return nil
}

// Load returns the stored snapshot.
func (s *PositionStore) Load(_ context.Context) (*domain.PersistedPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == nil {
		return nil, domain.ErrNotFound
	}
	cp := *s.pos
	cp.Frames = append([]domain.FrameRef(nil), s.pos.Frames...)
	return &cp, nil
}

// Delete removes the stored snapshot.
func (s *PositionStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = nil
	return nil
}
