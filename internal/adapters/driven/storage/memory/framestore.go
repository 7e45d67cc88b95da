package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
)

// Ensure FrameStore implements the interfaces.
var (
	_ driven.FrameStore   = (*FrameStore)(nil)
	_ driven.FrameIndexer = (*FrameStore)(nil)
)

// FrameStore is an in-memory implementation of driven.FrameStore.
// Frames are kept sorted ascending by timestamp.
type FrameStore struct {
	mu     sync.RWMutex
	frames []domain.FrameRef
	nodes  map[domain.FrameID][]domain.OCRNode
	images map[domain.FrameID][]byte
}

// NewFrameStore creates a new in-memory frame store.
func NewFrameStore() *FrameStore {
	return &FrameStore{
		nodes:  make(map[domain.FrameID][]domain.OCRNode),
		images: make(map[domain.FrameID][]byte),
	}
}

// Add inserts frames, replacing any with the same ID.
func (s *FrameStore) Add(frames ...domain.FrameRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range frames {
		s.removeLocked(f.ID)
		s.frames = append(s.frames, f)
	}
	sort.SliceStable(s.frames, func(i, j int) bool {
		return s.frames[i].Timestamp.Before(s.frames[j].Timestamp)
	})
}

// SetImage stores the bytes DecodeImage returns for a frame.
func (s *FrameStore) SetImage(id domain.FrameID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = data
}

// SaveFrame stores or replaces a frame together with its OCR nodes.
func (s *FrameStore) SaveFrame(_ context.Context, frame domain.FrameRef, nodes []domain.OCRNode) error {
	s.Add(frame)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[frame.ID] = append([]domain.OCRNode(nil), nodes...)
	return nil
}

// RangeQuery returns frames in [from, to], ascending.
func (s *FrameStore) RangeQuery(_ context.Context, from, to time.Time, limit int) ([]domain.FrameRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FrameRef
	for _, f := range s.frames {
		if f.Timestamp.Before(from) || f.Timestamp.After(to) {
			continue
		}
		result = append(result, f)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// BeforeQuery returns frames strictly older than ts, newest first.
func (s *FrameStore) BeforeQuery(_ context.Context, ts time.Time, limit int) ([]domain.FrameRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FrameRef
	for i := len(s.frames) - 1; i >= 0; i-- {
		if !s.frames[i].Timestamp.Before(ts) {
			continue
		}
		result = append(result, s.frames[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// AfterQuery returns frames strictly newer than ts, oldest first.
func (s *FrameStore) AfterQuery(_ context.Context, ts time.Time, limit int) ([]domain.FrameRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FrameRef
	for _, f := range s.frames {
		if !f.Timestamp.After(ts) {
			continue
		}
		result = append(result, f)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// MostRecent returns the newest frames, newest first.
func (s *FrameStore) MostRecent(_ context.Context, limit int) ([]domain.FrameRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.FrameRef
	for i := len(s.frames) - 1; i >= 0; i-- {
		result = append(result, s.frames[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// ByID retrieves a single frame.
func (s *FrameStore) ByID(_ context.Context, id domain.FrameID) (*domain.FrameRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.frames {
		if f.ID == id {
			frame := f
			return &frame, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DecodeImage returns the bytes stored with SetImage.
func (s *FrameStore) DecodeImage(_ context.Context, frame domain.FrameRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[frame.ID]
	if !ok {
		return nil, fmt.Errorf("%w: no image for frame %s", domain.ErrDecodeFailure, frame.ID)
	}
	return data, nil
}

// OCRNodes returns the text regions of a frame.
func (s *FrameStore) OCRNodes(_ context.Context, frame domain.FrameRef) ([]domain.OCRNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OCRNode(nil), s.nodes[frame.ID]...), nil
}

// Delete removes a frame.
func (s *FrameStore) Delete(_ context.Context, frame domain.FrameRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(frame.ID)
	return nil
}

// DeleteMany removes several frames.
func (s *FrameStore) DeleteMany(_ context.Context, frames []domain.FrameRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range frames {
		s.removeLocked(f.ID)
	}
	return nil
}

// Len returns the number of stored frames.
func (s *FrameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

func (s *FrameStore) removeLocked(id domain.FrameID) {
	for i, f := range s.frames {
		if f.ID == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			break
		}
	}
	delete(s.nodes, id)
	delete(s.images, id)
}
