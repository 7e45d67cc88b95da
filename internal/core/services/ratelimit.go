package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// decodeBackoff is how long decoding pauses after the decoder fails.
const decodeBackoff = 500 * time.Millisecond

// DecodeThrottle limits out-of-band image decoding while scrubbing.
// It uses a token bucket with a short backoff after decoder failures.
type DecodeThrottle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewDecodeThrottle creates a throttle from decode settings.
func NewDecodeThrottle(cfg domain.DecodeSettings) *DecodeThrottle {
	return &DecodeThrottle{
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

// Wait blocks until a decode may start.
func (t *DecodeThrottle) Wait(ctx context.Context) error {
	t.mu.Lock()
	retryAt := t.retryAt
	t.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.limiter.Wait(ctx)
}

// RecordFailure delays the next decode.
func (t *DecodeThrottle) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retryAt = time.Now().Add(decodeBackoff)
}
