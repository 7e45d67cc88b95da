package driven

import (
	"context"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// DataSourceVersioner reports the current data-source version, a counter
// incremented whenever an upstream data source is toggled.
type DataSourceVersioner interface {
	DataSourceVersion() int64
}

// DataSourceWatcher signals data-source changes.
type DataSourceWatcher interface {
	// Watch emits an event each time the data-source version changes.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.DataSourceEvent, error)
}
