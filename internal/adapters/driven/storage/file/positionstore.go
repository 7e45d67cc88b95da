// Package file stores the resume snapshot as a JSON file next to the
// frame database.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
)

// positionFile is the snapshot file name inside the data directory.
const positionFile = "position.json"

// Ensure PositionStore implements the interface.
var _ driven.PositionStore = (*PositionStore)(nil)

// PositionStore is a JSON-file-backed driven.PositionStore.
// Saves go through WriteAtomic, so a crash mid-save never leaves a
// half-written snapshot behind.
type PositionStore struct {
	path string
}

// NewPositionStore creates a store writing to dataDir/position.json.
// If dataDir is empty, defaults to ~/.rewind/data.
func NewPositionStore(dataDir string) (*PositionStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rewind", "data")
	}
	return &PositionStore{path: filepath.Join(dataDir, positionFile)}, nil
}

// Path returns the snapshot file path.
func (s *PositionStore) Path() string {
	return s.path
}

// Save replaces the stored snapshot.
func (s *PositionStore) Save(_ context.Context, pos *domain.PersistedPosition) error {
	if pos == nil {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshalling position: %w", err)
	}
	if err := WriteAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing position: %w", err)
	}
	return nil
}

// Load returns the stored snapshot.
func (s *PositionStore) Load(_ context.Context) (*domain.PersistedPosition, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading position: %w", err)
	}
	var pos domain.PersistedPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, err)
	}
	return &pos, nil
}

// Delete removes the snapshot file.
func (s *PositionStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting position: %w", err)
	}
	return nil
}
