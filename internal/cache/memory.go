// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	// DefaultTTL applies when Set is called with a zero TTL. Defaults to one minute.
	DefaultTTL time.Duration

	// MaxSize caps the number of entries; 0 means unlimited.
	MaxSize int

	// CleanupInterval is how often expired entries are swept. Zero disables
	// the background sweep; expired entries are then dropped lazily.
	CleanupInterval time.Duration
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache keeps entries in a map guarded by a mutex. When full, it
// evicts the entry closest to expiry.
type MemoryCache struct {
	counters

	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	max     int
	closed  bool
	stop    chan struct{}
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache and starts its sweeper.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     opts.DefaultTTL,
		max:     opts.MaxSize,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if opts.CleanupInterval > 0 {
		go c.sweepLoop(opts.CleanupInterval)
	}
	return c
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return bytes.Clone(e.value), nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if _, exists := c.entries[key]; !exists && c.max > 0 && len(c.entries) >= c.max {
		c.sweepLocked()
		if len(c.entries) >= c.max {
			c.evictSoonestLocked()
		}
	}
	c.entries[key] = memoryEntry{value: bytes.Clone(value), expires: c.now().Add(ttl)}
	c.sets.Add(1)
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	delete(c.entries, key)
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	clear(c.entries)
	return nil
}

// Close stops the sweeper. Further calls fail with ErrCacheClosed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.stop)
		c.entries = nil
	}
	return nil
}

// Stats implements StatsProvider.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return c.snapshot(n)
}

func (c *MemoryCache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.sweepLocked()
			c.mu.Unlock()
		}
	}
}

func (c *MemoryCache) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCache) evictSoonestLocked() {
	var (
		victim string
		first  time.Time
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.expires.Before(first) {
			victim, first, found = k, e.expires, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}
