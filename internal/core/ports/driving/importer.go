package driving

import (
	"context"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// ImportService indexes captured frames from a directory.
type ImportService interface {
	// Import scans dir for images and OCR sidecars.
	Import(ctx context.Context, dir string) (*domain.ImportResult, error)
}
