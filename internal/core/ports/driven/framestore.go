package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// FrameStore is the ordered, time-indexed source of captured frames.
// Backed by SQLite for metadata; pixels are decoded from the frame locator.
//
// Query methods return domain.ErrNotFound only from ByID. An empty slice
// is a valid result for every range query.
type FrameStore interface {
	// RangeQuery returns frames with from <= timestamp <= to, ascending.
	RangeQuery(ctx context.Context, from, to time.Time, limit int) ([]domain.FrameRef, error)

	// BeforeQuery returns frames strictly older than ts, newest first.
	BeforeQuery(ctx context.Context, ts time.Time, limit int) ([]domain.FrameRef, error)

	// AfterQuery returns frames strictly newer than ts, oldest first.
	AfterQuery(ctx context.Context, ts time.Time, limit int) ([]domain.FrameRef, error)

	// MostRecent returns the newest frames, newest first.
	MostRecent(ctx context.Context, limit int) ([]domain.FrameRef, error)

	// ByID retrieves a single frame.
	ByID(ctx context.Context, id domain.FrameID) (*domain.FrameRef, error)

	// DecodeImage returns the encoded image bytes of a frame.
	DecodeImage(ctx context.Context, frame domain.FrameRef) ([]byte, error)

	// OCRNodes returns the text regions extracted for a frame.
	OCRNodes(ctx context.Context, frame domain.FrameRef) ([]domain.OCRNode, error)

	// Delete removes a frame and its OCR nodes.
	Delete(ctx context.Context, frame domain.FrameRef) error

	// DeleteMany removes several frames in one operation.
	DeleteMany(ctx context.Context, frames []domain.FrameRef) error
}

// FrameIndexer writes frames into the store. Used by the importer.
type FrameIndexer interface {
	// SaveFrame stores or replaces a frame together with its OCR nodes.
	SaveFrame(ctx context.Context, frame domain.FrameRef, nodes []domain.OCRNode) error
}

// ImageDecoder turns a frame locator into encoded image bytes.
// FrameStore implementations delegate DecodeImage to it.
type ImageDecoder interface {
	Decode(ctx context.Context, loc domain.Locator) ([]byte, error)
}
