// Package logger provides structured logging for Rewind.
// Messages go to stderr through a log/slog text handler. Only warnings
// and errors are printed by default; the --verbose flag lowers the level
// to debug so users can follow paging, decoding and snapshot activity.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	level = new(slog.LevelVar)
	root  = slog.New(slog.NewTextHandler(writerFunc(write), &slog.HandlerOptions{Level: level}))
)

func init() {
	level.Set(slog.LevelWarn)
}

// writerFunc adapts a function to io.Writer so SetOutput can swap the
// destination without rebuilding the handler.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func write(p []byte) (int, error) {
	mu.RLock()
	defer mu.RUnlock()
	return output.Write(p)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// For returns a logger tagged with the given component name.
func For(component string) *slog.Logger {
	return root.With("component", component)
}

// Default returns the untagged root logger.
func Default() *slog.Logger {
	return root
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...any) {
	root.Debug(fmt.Sprintf(format, args...))
}

// Info logs a formatted message at info level.
func Info(format string, args ...any) {
	root.Info(fmt.Sprintf(format, args...))
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...any) {
	root.Warn(fmt.Sprintf(format, args...))
}
