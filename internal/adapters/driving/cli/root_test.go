package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/services"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *memory.FrameStore
	positions *memory.PositionStore
	viewer    *services.Viewer
	settings  *services.SettingsService
}

// setupTestServices wires real services over memory adapters with n
// frames one minute apart. Frame i carries the text "line <i>".
func setupTestServices(t *testing.T, n int) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.NewFrameStore()
	for i := 0; i < n; i++ {
		f := domain.FrameRef{
			ID:        domain.FrameID(fmt.Sprintf("f%03d", i)),
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			SegmentID: "s1",
		}
		require.NoError(t, store.SaveFrame(ctx, f, []domain.OCRNode{
			{ID: string(f.ID) + "-n", FrameID: f.ID, Box: domain.Rect{X: 0.1, Y: 0.1, W: 0.3, H: 0.05}, Text: fmt.Sprintf("line %d", i)},
		}))
	}

	settings := services.NewSettingsService(memory.NewConfigStore())
	positions := memory.NewPositionStore()
	cache := services.NewPositionCache(positions, settings, time.Minute)
	viewer := services.NewViewer(store, cache, domain.DefaultAppSettings())
	t.Cleanup(viewer.Close)

	SetServices(&Services{
		Timeline: viewer,
		Settings: settings,
		Importer: services.NewImporter(store, settings),
	})
	t.Cleanup(func() { SetServices(nil) })

	return &testEnv{store: store, positions: positions, viewer: viewer, settings: settings}
}

// runCommand executes the root command with args and returns its output.
// Flag variables are reset first because cobra only assigns them when set.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	framesLimit, framesJSON, framesSave = 10, false, false
	textWidth = -1
	importJSON = false
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "rewind", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, flag)
	assert.Contains(t, flag.DefValue, ".rewind")

	flag = rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_Bootstrap(t *testing.T) {
	env := setupTestServices(t, 2)
	SetServices(nil)

	var gotDir string
	cleaned := false
	SetBootstrap(func(_ context.Context, dir string) (*Services, func(), error) {
		gotDir = dir
		return &Services{Timeline: env.viewer, Settings: env.settings}, func() { cleaned = true }, nil
	})
	defer SetBootstrap(nil)

	out, err := runCommand(t, "--data-dir", t.TempDir(), "frames", "list")
	runCleanup()

	require.NoError(t, err)
	assert.NotEmpty(t, gotDir)
	assert.True(t, cleaned)
	assert.Contains(t, out, "f001")
}

func TestRootCmd_BootstrapError(t *testing.T) {
	SetBootstrap(func(context.Context, string) (*Services, func(), error) {
		return nil, nil, domain.ErrStoreUnavailable
	})
	defer SetBootstrap(nil)

	_, err := runCommand(t, "frames", "list")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "starting rewind")
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	called := false
	SetBootstrap(func(context.Context, string) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})
	defer SetBootstrap(nil)

	_, err := runCommand(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestStartScheduler_None(t *testing.T) {
	SetServices(nil)

	stop := startScheduler(context.Background())

	assert.NotPanics(t, stop)
}

func TestStartScheduler_RunsUntilStopped(t *testing.T) {
	env := setupTestServices(t, 3)
	require.NoError(t, env.viewer.LoadInitial(context.Background()))
	env.viewer.WaitIdle()
	autosaver := services.NewAutosaver(env.viewer, 5*time.Millisecond)
	SetServices(&Services{Timeline: env.viewer, Scheduler: autosaver})

	stop := startScheduler(context.Background())

	assert.Eventually(t, func() bool {
		pos, err := env.positions.Load(context.Background())
		return err == nil && pos.IsMarker()
	}, time.Second, 5*time.Millisecond)
	stop()
}
