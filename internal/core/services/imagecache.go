package services

import (
	"sync"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// ImageCache is a bounded cache of frame images keyed by frame identity.
// When an insertion brings it to capacity it first evicts entries for
// frames that are no longer live, then, if still over capacity, the oldest
// half by insertion order.
type ImageCache struct {
	mu      sync.Mutex
	max     int
	entries map[domain.FrameID][]byte
	order   []domain.FrameID
	live    func(domain.FrameID) bool
}

// NewImageCache creates a cache holding at most maxEntries images.
// live reports whether a frame is still in the window; nil treats every
// frame as live.
func NewImageCache(maxEntries int, live func(domain.FrameID) bool) *ImageCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ImageCache{
		max:     maxEntries,
		entries: make(map[domain.FrameID][]byte),
		live:    live,
	}
}

// Get returns the cached image or nil. It never blocks on decoding.
func (c *ImageCache) Get(id domain.FrameID) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[id]
}

// Put inserts an image, re-inserting moves it to the newest position.
func (c *ImageCache) Put(id domain.FrameID, img []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok {
		c.removeOrderLocked(id)
	}
	c.entries[id] = img
	c.order = append(c.order, id)
	if len(c.entries) >= c.max {
		c.evictLocked()
	}
}

func (c *ImageCache) evictLocked() {
	if c.live != nil {
		kept := c.order[:0]
		for _, id := range c.order {
			if c.live(id) {
				kept = append(kept, id)
				continue
			}
			delete(c.entries, id)
		}
		c.order = kept
	}
	if len(c.entries) > c.max {
		half := len(c.order) / 2
		for _, id := range c.order[:half] {
			delete(c.entries, id)
		}
		c.order = append([]domain.FrameID(nil), c.order[half:]...)
	}
}

// Remove drops one entry.
func (c *ImageCache) Remove(id domain.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return
	}
	delete(c.entries, id)
	c.removeOrderLocked(id)
}

func (c *ImageCache) removeOrderLocked(id domain.FrameID) {
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Clear empties the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.FrameID][]byte)
	c.order = nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
