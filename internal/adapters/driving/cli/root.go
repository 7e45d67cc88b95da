// Package cli provides the cobra command tree for rewind.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/core/ports/driving"
	"github.com/custodia-labs/rewind/internal/logger"
)

// skipServices marks commands that run without the service graph.
const skipServices = "skip-services"

// version is set at build time via -ldflags.
var version = "dev"

var (
	dataDir string
	verbose bool
)

// Services holds the driving ports the commands operate on.
type Services struct {
	Timeline driving.TimelineService
	Settings driving.SettingsService
	Importer driving.ImportService

	// Scheduler runs background work while tui or serve is running.
	Scheduler driving.Scheduler
}

// BootstrapFunc builds the service graph for dataDir. The returned
// cleanup runs after the command finishes.
type BootstrapFunc func(ctx context.Context, dataDir string) (*Services, func(), error)

var (
	timelineService driving.TimelineService
	settingsService driving.SettingsService
	importService   driving.ImportService
	scheduler       driving.Scheduler

	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Browse a recorded screen timeline",
	Long: `Rewind browses a timeline of captured screen frames.

Frames are imported from a capture directory, kept in a local SQLite
database and browsed through a windowed timeline that pages older and
newer frames in on demand. Text recognised on each frame can be read,
selected and copied.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(),
		"directory holding config.toml and the frame database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services once flags are parsed.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices sets the services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	timelineService = s.Timeline
	settingsService = s.Settings
	importService = s.Importer
	scheduler = s.Scheduler
}

// Execute runs the root command.
func Execute() error {
	defer runCleanup()
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	defer runCleanup()
	return rootCmd.ExecuteContext(ctx)
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if _, ok := cmd.Annotations[skipServices]; ok || bootstrap == nil {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, done, err := bootstrap(ctx, dataDir)
	if err != nil {
		return fmt.Errorf("starting rewind: %w", err)
	}
	SetServices(s)
	cleanup = done
	return nil
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// defaultDataDir returns ~/.rewind, or .rewind when home is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rewind"
	}
	return filepath.Join(home, ".rewind")
}

func requireTimeline() error {
	if timelineService == nil {
		return errors.New("timeline service not configured")
	}
	return nil
}

// startScheduler runs the background scheduler, if any, until the
// returned stop function is called.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil {
		return func() {}
	}
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.For("cli").Warn("scheduler stopped", "error", err)
		}
	}()
	return func() {
		if err := scheduler.Stop(); err != nil {
			logger.For("cli").Warn("stopping scheduler failed", "error", err)
		}
	}
}

// ensureLoaded performs the initial window load when nothing is loaded yet.
func ensureLoaded(ctx context.Context) error {
	if len(timelineService.Frames()) > 0 || timelineService.NoData() {
		return nil
	}
	if err := timelineService.LoadInitial(ctx); err != nil {
		return fmt.Errorf("loading timeline: %w", err)
	}
	return nil
}
