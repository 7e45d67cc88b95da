package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// timeLayout formats timestamps in responses.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Loaded  int    `json:"frames_loaded"`
	NoData  bool   `json:"no_data"`
}

// FrameResponse describes one frame.
type FrameResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	SegmentID string `json:"segment_id"`
}

// SegmentResponse describes a run of frames from one recording segment.
type SegmentResponse struct {
	SegmentID string `json:"segment_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Frames    int    `json:"frames"`
}

// TimelineResponse is returned by the timeline endpoints.
type TimelineResponse struct {
	Current      *FrameResponse    `json:"current,omitempty"`
	CurrentIndex int               `json:"current_index"`
	Frames       []FrameResponse   `json:"frames"`
	Segments     []SegmentResponse `json:"segments"`
	HasOlder     bool              `json:"has_older"`
	HasNewer     bool              `json:"has_newer"`
}

// JumpRequest is the body of POST /timeline/jump.
type JumpRequest struct {
	Timestamp string `json:"timestamp"`
}

// StepRequest is the body of POST /timeline/step.
type StepRequest struct {
	Delta int `json:"delta"`
}

// FrameTextResponse is returned by GET /frames/{id}/text with Accept: application/json.
type FrameTextResponse struct {
	FrameID string `json:"frame_id"`
	Text    string `json:"text"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FrameToResponse converts a frame reference.
func FrameToResponse(f domain.FrameRef) FrameResponse {
	return FrameResponse{
		ID:        string(f.ID),
		Timestamp: f.Timestamp.Format(timeLayout),
		SegmentID: string(f.SegmentID),
	}
}

// SegmentToResponse converts a segment span.
func SegmentToResponse(s domain.SegmentSpan) SegmentResponse {
	return SegmentResponse{
		SegmentID: string(s.SegmentID),
		Start:     s.Start.Format(timeLayout),
		End:       s.End.Format(timeLayout),
		Frames:    s.Len(),
	}
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// WriteJSON writes data as a JSON body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrEmptyResult):
		WriteError(w, http.StatusNotFound, err.Error(), "NOTHING_RECORDED")
	case errors.Is(err, domain.ErrDecodeFailure):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "DECODE_FAILED")
	case errors.Is(err, domain.ErrStoreUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "STORE_UNAVAILABLE")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
