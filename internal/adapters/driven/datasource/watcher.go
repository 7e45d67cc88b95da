// Package datasource watches the configuration file for data-source
// version bumps made by other processes, such as an import running while
// the viewer is open.
package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.DataSourceWatcher = (*Watcher)(nil)

// Watcher reloads the config file whenever it changes on disk and emits a
// domain.DataSourceEvent when the stored data-source version moved.
type Watcher struct {
	config driven.ConfigStore
	key    string
	log    *slog.Logger

	mu      sync.Mutex
	last    int64
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over config. key is the config key holding
// the data-source version.
func NewWatcher(config driven.ConfigStore, key string) *Watcher {
	return &Watcher{
		config: config,
		key:    key,
		log:    logger.For("datasource"),
		last:   config.GetInt64(key),
	}
}

// Watch starts watching the config directory. The directory rather than
// the file is watched because atomic saves replace the file.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.DataSourceEvent, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.config.Path())); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config dir: %w", err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	events := make(chan domain.DataSourceEvent, 1)
	go func() {
		defer close(events)
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				change := w.handleFsEvent(ev)
				if change == nil {
					continue
				}
				select {
				case events <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", "error", err)
			}
		}
	}()
	return events, nil
}

// handleFsEvent reloads the config for writes to the config file and
// returns an event when the version changed.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) *domain.DataSourceEvent {
	if filepath.Base(ev.Name) != filepath.Base(w.config.Path()) {
		return nil
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return nil
	}
	if err := w.config.Load(); err != nil {
		// a writer may be mid-save; the next event retries
		w.log.Debug("config reload failed", "error", err)
		return nil
	}

	v := w.config.GetInt64(w.key)
	w.mu.Lock()
	defer w.mu.Unlock()
	if v == w.last {
		return nil
	}
	w.last = v
	w.log.Debug("data-source version changed", "version", v)
	return &domain.DataSourceEvent{Version: v}
}

// Close stops watching. Watch's channel closes shortly after.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
