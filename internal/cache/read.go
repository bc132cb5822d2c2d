// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadCache memoizes JSON-encoded query results. Concurrent misses for the
// same key share one computation. Backend failures degrade to uncached
// reads.
type ReadCache struct {
	backend Cache
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
	// gen is bumped by Clear; results computed across a Clear are not stored.
	gen atomic.Uint64
}

// NewReadCache wraps backend. A zero ttl uses the backend default.
func NewReadCache(backend Cache, ttl time.Duration, logger *slog.Logger) *ReadCache {
	return &ReadCache{backend: backend, ttl: ttl, logger: logger}
}

// Key builds a cache key from a procedure name and its raw params.
func Key(procedure string, params []byte) string {
	if len(params) == 0 {
		return procedure
	}
	return procedure + "?" + string(params)
}

// Remember returns the cached JSON for key, or computes it with fn,
// stores it and returns it.
func (c *ReadCache) Remember(ctx context.Context, key string, fn func(context.Context) (any, error)) (json.RawMessage, error) {
	data, err := c.backend.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WarnContext(ctx, "read cache get failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.gen.Load()
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encoding cached value: %w", err)
		}
		c.store(ctx, key, encoded, gen)
		return json.RawMessage(encoded), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// store saves a result computed during generation gen. A Clear may land
// at any point around the Set, so the generation is checked again after it
// and the entry is dropped when a Clear got in between.
func (c *ReadCache) store(ctx context.Context, key string, encoded []byte, gen uint64) {
	if c.gen.Load() != gen {
		return
	}
	if err := c.backend.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "read cache set failed", "key", key, "error", err)
		return
	}
	if c.gen.Load() == gen {
		return
	}
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "read cache delete failed", "key", key, "error", err)
	}
}

// Clear drops every cached result.
func (c *ReadCache) Clear(ctx context.Context) {
	c.gen.Add(1)
	if err := c.backend.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "read cache clear failed", "error", err)
	}
}

// Backend returns the underlying cache.
func (c *ReadCache) Backend() Cache {
	return c.backend
}
