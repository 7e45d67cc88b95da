package driven

import (
	"context"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// PositionStore persists the single resume snapshot.
type PositionStore interface {
	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, pos *domain.PersistedPosition) error

	// Load returns the stored snapshot. Returns domain.ErrNotFound when
	// nothing is stored and domain.ErrCacheCorrupt when it cannot be parsed.
	Load(ctx context.Context) (*domain.PersistedPosition, error)

	// Delete removes the stored snapshot. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}
