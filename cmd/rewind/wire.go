package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/rewind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/rewind/internal/adapters/driven/datasource"
	"github.com/custodia-labs/rewind/internal/adapters/driven/media"
	filestore "github.com/custodia-labs/rewind/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rewind/internal/adapters/driving/cli"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/core/services"
	"github.com/custodia-labs/rewind/internal/logger"
)

// ffmpegEnv overrides the ffmpeg binary used for video frames.
const ffmpegEnv = "REWIND_FFMPEG"

// bootstrap builds the service graph rooted at dataDir:
//
//	dataDir/config.toml        settings and data-source version
//	dataDir/data/frames.db     frame index
//	dataDir/data/position.json resume snapshot (file backend)
func bootstrap(ctx context.Context, dataDir string) (*cli.Services, func(), error) {
	log := logger.For("main")

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	storeDir := filepath.Join(dataDir, "data")
	store, err := sqlite.NewStore(storeDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening frame store: %w", err)
	}
	frames := store.FrameStore(media.NewDecoder(os.Getenv(ffmpegEnv)))

	positionStore, err := newPositionStore(settings.Position.Backend, store, storeDir)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	positions := services.NewPositionCache(positionStore, settingsService, settings.Position.Expiry)

	viewer := services.NewViewer(frames, positions, *settings)

	runCtx, cancel := context.WithCancel(ctx)
	watcher := datasource.NewWatcher(configStore, services.KeyDataSourceVersion)
	events, err := watcher.Watch(runCtx)
	if err != nil {
		// the viewer still works, it just will not notice imports from elsewhere
		log.Warn("data-source watcher unavailable", "error", err)
	} else {
		go viewer.Run(runCtx, events)
	}

	cleanup := func() {
		cancel()
		if err := watcher.Close(); err != nil {
			log.Debug("closing watcher", "error", err)
		}
		viewer.Close()
		if err := store.Close(); err != nil {
			log.Warn("closing frame store", "error", err)
		}
	}

	return &cli.Services{
		Timeline:  viewer,
		Settings:  settingsService,
		Importer:  services.NewImporter(frames, settingsService),
		Scheduler: services.NewAutosaver(viewer, services.DefaultAutosaveInterval),
	}, cleanup, nil
}

func newPositionStore(backend domain.PositionBackend, store *sqlite.Store, dir string) (driven.PositionStore, error) {
	switch backend {
	case domain.PositionBackendSQLite:
		return store.PositionStore(), nil
	case domain.PositionBackendFile:
		ps, err := filestore.NewPositionStore(dir)
		if err != nil {
			return nil, fmt.Errorf("opening position store: %w", err)
		}
		return ps, nil
	}
	return nil, errors.New("unknown position backend " + backend.String())
}
