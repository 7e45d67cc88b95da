// Package httpapi exposes the timeline over a local HTTP API so other
// tools on the machine can browse frames, fetch images and read text.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/rewind/internal/core/ports/driving"
	"github.com/custodia-labs/rewind/internal/logger"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// ErrMissingTimelineService is returned when the timeline service is not provided.
var ErrMissingTimelineService = errors.New("httpapi: timeline service is required")

// Config configures the HTTP API.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:7420".
	Addr string

	// Timeline browses frames. Required.
	Timeline driving.TimelineService

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	// Logger defaults to the "httpapi" component logger.
	Logger *slog.Logger

	// Now defaults to time.Now. It resolves relative jump times.
	Now func() time.Time

	// StartTime is used for the reported uptime.
	StartTime time.Time
}

// Server serves the HTTP API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server for cfg.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Timeline == nil {
		return nil, ErrMissingTimelineService
	}
	cfg = cfg.withDefaults()

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = logger.For("httpapi")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.StartTime.IsZero() {
		c.StartTime = c.Now()
	}
	return c
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
