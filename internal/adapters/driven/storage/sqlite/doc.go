// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several interfaces
// through a single database connection:
//
//   - FrameStore: time-indexed frame queries, OCR nodes and deletion
//   - FrameIndexer: frame writes used by the importer
//   - PositionStore: the single resume snapshot
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Capture times are stored as Unix nanoseconds so range queries hit the
// captured_at index directly.
//
// # Data Location
//
// By default, the database is stored at ~/.rewind/data/frames.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
