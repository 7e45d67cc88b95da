// Package domain defines the core entities for Rewind.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FrameRef: Identity, timestamp and media locator of one captured frame
//   - OCRNode: A text region extracted from a frame
//   - LoadState: Paging progress of the in-memory timeline window
//   - PersistedPosition: A resume snapshot of the window and index
//   - AppSettings: Windowing, cache, snapshot and decode configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
