package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
)

// positionStore implements driven.PositionStore as a single-row table.
type positionStore struct {
	store *Store
}

var _ driven.PositionStore = (*positionStore)(nil)

// Save replaces the stored snapshot.
func (s *positionStore) Save(ctx context.Context, pos *domain.PersistedPosition) error {
	if pos == nil {
		return domain.ErrInvalidInput
	}
	payload, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshalling position: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO position_snapshot (id, payload, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, string(payload), pos.SavedAt)
	if err != nil {
		return fmt.Errorf("saving position: %w", err)
	}
	return nil
}

// Load returns the stored snapshot.
func (s *positionStore) Load(ctx context.Context) (*domain.PersistedPosition, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx, "SELECT payload FROM position_snapshot WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	var pos domain.PersistedPosition
	if err := json.Unmarshal([]byte(payload), &pos); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, err)
	}
	return &pos, nil
}

// Delete removes the stored snapshot.
func (s *positionStore) Delete(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM position_snapshot"); err != nil {
		return fmt.Errorf("deleting position: %w", err)
	}
	return nil
}
