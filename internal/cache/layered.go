package cache

import (
	"errors"
	"time"
)

// LayeredCache reads memory before disk and writes both
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a memory cache over a disk cache in dir
func NewLayeredCache(memoryTTL time.Duration, dir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(dir, diskTTL),
	}
}

// Get checks memory, then disk, promoting disk hits to memory
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	v, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, v, 0)
	return v, true
}

// Set writes both layers. The memory write is kept even if disk fails.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	return errors.Join(c.memory.Set(key, value, ttl), c.disk.Set(key, value, ttl))
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
