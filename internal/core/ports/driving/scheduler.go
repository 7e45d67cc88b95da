package driving

import "context"

// Scheduler runs background work for the lifetime of an interactive
// session, such as refreshing the resume marker.
type Scheduler interface {
	// Start runs the background loop.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for it to return.
	Stop() error
}
