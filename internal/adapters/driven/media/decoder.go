// Package media decodes frame pixels from captured media: standalone
// images are read as-is and video frames are extracted with ffmpeg.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/logger"
)

// maxStderrBytes is the tail of ffmpeg's stderr kept for diagnostics.
const maxStderrBytes = 4 * 1024

// Ensure Decoder implements the interface.
var _ driven.ImageDecoder = (*Decoder)(nil)

// Decoder implements driven.ImageDecoder.
type Decoder struct {
	ffmpeg string
	log    *slog.Logger

	once      sync.Once
	resolved  string
	lookupErr error
}

// NewDecoder creates a decoder. ffmpegPath may be empty, in which case
// ffmpeg is looked up on PATH the first time a video frame is decoded.
func NewDecoder(ffmpegPath string) *Decoder {
	return &Decoder{ffmpeg: ffmpegPath, log: logger.For("media")}
}

// Decode returns encoded image bytes (PNG for video frames).
func (d *Decoder) Decode(ctx context.Context, loc domain.Locator) ([]byte, error) {
	switch loc.Kind {
	case domain.LocatorImage:
		data, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailure, err)
		}
		return data, nil
	case domain.LocatorVideo:
		return d.videoFrame(ctx, loc)
	default:
		return nil, fmt.Errorf("%w: unknown locator kind %q", domain.ErrDecodeFailure, loc.Kind)
	}
}

func (d *Decoder) binary() (string, error) {
	d.once.Do(func() {
		name := d.ffmpeg
		if name == "" {
			name = "ffmpeg"
		}
		d.resolved, d.lookupErr = exec.LookPath(name)
	})
	return d.resolved, d.lookupErr
}

func (d *Decoder) videoFrame(ctx context.Context, loc domain.Locator) ([]byte, error) {
	bin, err := d.binary()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not available: %w", domain.ErrDecodeFailure, err)
	}
	if _, err := os.Stat(loc.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailure, err)
	}

	args := []string{
		"-v", "error",
		"-i", loc.Path,
		"-vf", `select=eq(n\,` + strconv.Itoa(loc.FrameIndex) + `)`,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &tailWriter{w: &stderr, limit: maxStderrBytes}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		tail := strings.TrimSpace(stderr.String())
		d.log.Warn("ffmpeg failed", "path", loc.Path, "frame", loc.FrameIndex, "exit_code", exitCode, "stderr_tail", tail)
		return nil, fmt.Errorf("%w: ffmpeg exit %d: %s", domain.ErrDecodeFailure, exitCode, tail)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: frame %d not found in %s", domain.ErrDecodeFailure, loc.FrameIndex, loc.Path)
	}
	return stdout.Bytes(), nil
}

// tailWriter keeps only the last limit bytes written to it.
type tailWriter struct {
	w     *bytes.Buffer
	limit int
}

func (tw *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	tw.w.Write(p)
	if tw.w.Len() > tw.limit {
		b := tw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-tw.limit:]...)
		tw.w.Reset()
		tw.w.Write(tail)
	}
	return n, nil
}
