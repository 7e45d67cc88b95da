package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// PositionBackend selects where resume snapshots are persisted.
type PositionBackend string

// Available position backends.
const (
	// PositionBackendFile writes the snapshot to a JSON file atomically.
	PositionBackendFile PositionBackend = "file"

	// PositionBackendSQLite stores the snapshot as a row in the frame database.
	PositionBackendSQLite PositionBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b PositionBackend) IsValid() bool {
	switch b {
	case PositionBackendFile, PositionBackendSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b PositionBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b PositionBackend) Description() string {
	switch b {
	case PositionBackendFile:
		return "JSON file (atomic rename)"
	case PositionBackendSQLite:
		return "SQLite row in the frame database"
	default:
		return unknownDescription
	}
}

// TimelineSettings holds windowing behaviour configuration.
type TimelineSettings struct {
	// MaxFrames bounds the window length after every trim.
	MaxFrames int

	// LoadThreshold is the distance from either edge that triggers a page load.
	LoadThreshold int

	// LoadBatchSize is the number of frames fetched per page.
	LoadBatchSize int

	// JumpRadius is the half-width of the window fetched around a jump target.
	JumpRadius time.Duration
}

// CacheSettings holds decoded image cache configuration.
type CacheSettings struct {
	// MaxImages bounds the number of decoded bitmaps kept in memory.
	MaxImages int
}

// PositionSettings holds resume snapshot configuration.
type PositionSettings struct {
	// Backend selects the snapshot store.
	Backend PositionBackend

	// Expiry is how long a saved snapshot stays valid.
	Expiry time.Duration
}

// DecodeSettings throttles out-of-band image decoding.
type DecodeSettings struct {
	// Rate is the sustained number of decodes per second.
	Rate float64

	// Burst is the maximum decode burst.
	Burst int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Timeline TimelineSettings
	Cache    CacheSettings
	Position PositionSettings
	Decode   DecodeSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Timeline: TimelineSettings{
			MaxFrames:     DefaultMaxFrames,
			LoadThreshold: 100,
			LoadBatchSize: 200,
			JumpRadius:    10 * time.Minute,
		},
		Cache: CacheSettings{
			MaxImages: 50,
		},
		Position: PositionSettings{
			Backend: PositionBackendFile,
			Expiry:  120 * time.Second,
		},
		Decode: DecodeSettings{
			Rate:  30,
			Burst: 10,
		},
	}
}

// Validate checks settings for values the services cannot work with.
func (s AppSettings) Validate() error {
	t := s.Timeline
	if t.MaxFrames <= 0 {
		return fmt.Errorf("%w: max frames must be positive", ErrInvalidInput)
	}
	if t.LoadBatchSize <= 0 {
		return fmt.Errorf("%w: load batch size must be positive", ErrInvalidInput)
	}
	if t.LoadThreshold < 0 || t.LoadThreshold > t.MaxFrames {
		return fmt.Errorf("%w: load threshold must be within [0, max frames]", ErrInvalidInput)
	}
	if t.JumpRadius <= 0 {
		return fmt.Errorf("%w: jump radius must be positive", ErrInvalidInput)
	}
	if s.Cache.MaxImages <= 0 {
		return fmt.Errorf("%w: image cache size must be positive", ErrInvalidInput)
	}
	if !s.Position.Backend.IsValid() {
		return fmt.Errorf("%w: unknown position backend %q", ErrInvalidInput, s.Position.Backend)
	}
	if s.Position.Expiry <= 0 {
		return fmt.Errorf("%w: position expiry must be positive", ErrInvalidInput)
	}
	if s.Decode.Rate <= 0 || s.Decode.Burst <= 0 {
		return fmt.Errorf("%w: decode rate and burst must be positive", ErrInvalidInput)
	}
	return nil
}

// AllPositionBackends returns all available position backends.
func AllPositionBackends() []PositionBackend {
	return []PositionBackend{PositionBackendFile, PositionBackendSQLite}
}
