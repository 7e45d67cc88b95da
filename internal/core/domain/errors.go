package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Timeline Errors.

	// ErrStoreUnavailable indicates the frame store failed a query.
	// It is transient: re-triggering the navigation retries it.
	ErrStoreUnavailable = errors.New("frame store unavailable")

	// ErrEmptyResult indicates no frames exist for the requested range.
	// It is an empty state rather than a failure.
	ErrEmptyResult = errors.New("nothing found")

	// ErrDecodeFailure indicates a frame image could not be decoded.
	// The frame stays navigable without an image.
	ErrDecodeFailure = errors.New("frame decode failed")

	// ErrCacheCorrupt indicates a persisted position snapshot failed to parse.
	// It is handled as a cache miss.
	ErrCacheCorrupt = errors.New("position snapshot corrupt")
)
