package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// maxTimelineLimit caps the frames returned by GET /timeline.
const maxTimelineLimit = 500

// NewRouter builds the API routes for cfg.
func NewRouter(cfg Config) *chi.Mux {
	cfg = cfg.withDefaults()
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/timeline", func(r chi.Router) {
		r.Get("/", timelineHandler(cfg))
		r.Post("/jump", jumpHandler(cfg))
		r.Post("/step", stepHandler(cfg))
	})

	r.Route("/frames/{id}", func(r chi.Router) {
		r.Get("/image", frameImageHandler(cfg))
		r.Get("/text", frameTextHandler(cfg))
		r.Delete("/", deleteFrameHandler(cfg))
	})

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	return r
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: Version,
			UptimeS: int64(cfg.Now().Sub(cfg.StartTime).Seconds()),
			Loaded:  len(cfg.Timeline.Frames()),
			NoData:  cfg.Timeline.NoData(),
		})
	}
}

func timelineHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer", "BAD_REQUEST")
				return
			}
			limit = min(n, maxTimelineLimit)
		}

		if len(cfg.Timeline.Frames()) == 0 && !cfg.Timeline.NoData() {
			if err := cfg.Timeline.LoadInitial(r.Context()); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		WriteJSON(w, http.StatusOK, timelineResponse(cfg, limit))
	}
}

func jumpHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JumpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Timestamp == "" {
			WriteError(w, http.StatusBadRequest, "timestamp is required", "BAD_REQUEST")
			return
		}

		t, err := domain.ParseTimeRef(req.Timestamp, cfg.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := cfg.Timeline.JumpToTimestamp(r.Context(), t); err != nil {
			writeDomainError(w, fmt.Errorf("jumping to %s: %w", t.Format(time.DateTime), err))
			return
		}
		WriteJSON(w, http.StatusOK, timelineResponse(cfg, 0))
	}
}

func stepHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.Step(req.Delta)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg, 0))
	}
}

func frameImageHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := domain.FrameID(chi.URLParam(r, "id"))

		img, err := cfg.Timeline.Image(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(img))
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img)
	}
}

func frameTextHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		text, err := cfg.Timeline.FrameText(r.Context(), domain.FrameID(id))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if r.Header.Get("Accept") == "application/json" {
			WriteJSON(w, http.StatusOK, FrameTextResponse{FrameID: id, Text: text})
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}
}

func deleteFrameHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := domain.FrameID(chi.URLParam(r, "id"))
		if err := cfg.Timeline.DeleteFrame(id); err != nil {
			writeDomainError(w, err)
			return
		}
		cfg.Logger.Info("frame deleted", "frame", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// timelineResponse renders up to limit frames centred on the current one.
// A zero limit returns the whole window.
func timelineResponse(cfg Config, limit int) TimelineResponse {
	frames := cfg.Timeline.Frames()
	cur := cfg.Timeline.CurrentIndex()
	state := cfg.Timeline.State()

	lo, hi := 0, len(frames)
	if limit > 0 && limit < len(frames) {
		lo = max(cur-limit/2, 0)
		hi = min(lo+limit, len(frames))
		lo = max(hi-limit, 0)
	}

	resp := TimelineResponse{
		CurrentIndex: cur,
		Frames:       make([]FrameResponse, 0, hi-lo),
		Segments:     []SegmentResponse{},
		HasOlder:     state.HasMoreOlder,
		HasNewer:     state.HasMoreNewer,
	}
	for _, f := range frames[lo:hi] {
		resp.Frames = append(resp.Frames, FrameToResponse(f))
	}
	for _, s := range cfg.Timeline.Segments() {
		resp.Segments = append(resp.Segments, SegmentToResponse(s))
	}
	if f, ok := cfg.Timeline.Current(); ok {
		fr := FrameToResponse(f)
		resp.Current = &fr
	}
	return resp
}
