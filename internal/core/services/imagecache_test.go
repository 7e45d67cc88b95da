package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

func imgID(i int) domain.FrameID {
	return domain.FrameID(fmt.Sprintf("img%03d", i))
}

func TestImageCache_GetPut(t *testing.T) {
	c := NewImageCache(50, nil)

	assert.Nil(t, c.Get("a"))
	c.Put("a", []byte{1})
	assert.Equal(t, []byte{1}, c.Get("a"))
	assert.Equal(t, 1, c.Len())
}

func TestImageCache_NeverExceedsCapacity(t *testing.T) {
	c := NewImageCache(50, nil)

	for i := 0; i < 200; i++ {
		c.Put(imgID(i), []byte{byte(i)})
		assert.LessOrEqual(t, c.Len(), 50)
	}
}

func TestImageCache_EvictsOldestHalfWhenAllLive(t *testing.T) {
	c := NewImageCache(50, func(domain.FrameID) bool { return true })

	for i := 0; i < 51; i++ {
		c.Put(imgID(i), []byte{1})
	}

	assert.Equal(t, 26, c.Len())
	assert.Nil(t, c.Get(imgID(0)))
	assert.Nil(t, c.Get(imgID(24)))
	assert.NotNil(t, c.Get(imgID(25)))
	assert.NotNil(t, c.Get(imgID(50)))
}

func TestImageCache_EvictsNonLiveFirst(t *testing.T) {
	live := map[domain.FrameID]bool{}
	c := NewImageCache(4, func(id domain.FrameID) bool { return live[id] })

	for i := 0; i < 3; i++ {
		c.Put(imgID(i), []byte{1})
	}
	live[imgID(1)] = true
	live[imgID(3)] = true
	c.Put(imgID(3), []byte{1})

	assert.Equal(t, 2, c.Len())
	assert.NotNil(t, c.Get(imgID(1)))
	assert.NotNil(t, c.Get(imgID(3)))
	assert.Nil(t, c.Get(imgID(0)))
}

func TestImageCache_ReinsertRefreshesOrder(t *testing.T) {
	c := NewImageCache(4, nil)
	for i := 0; i < 3; i++ {
		c.Put(imgID(i), []byte{1})
	}
	c.Put(imgID(0), []byte{2})
	c.Put(imgID(3), []byte{1})
	// at capacity, all live: nothing evicted yet
	assert.Equal(t, 4, c.Len())

	c.Put(imgID(4), []byte{1})

	// oldest half (1, 2) evicted, refreshed 0 kept
	assert.Nil(t, c.Get(imgID(1)))
	assert.Nil(t, c.Get(imgID(2)))
	assert.Equal(t, []byte{2}, c.Get(imgID(0)))
}

func TestImageCache_RemoveAndClear(t *testing.T) {
	c := NewImageCache(10, nil)
	c.Put("a", []byte{1})
	c.Put("b", []byte{2})

	c.Remove("a")
	c.Remove("missing")
	assert.Nil(t, c.Get("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
