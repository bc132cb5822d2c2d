// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(t *testing.T, maxSize int) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: maxSize})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// fakeClock lets tests move a MemoryCache through time.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestMemoryCache_GetSet(t *testing.T) {
	c := newTestMemoryCache(t, 100)
	ctx := context.Background()

	_, err := c.Get(ctx, "poems.getPublished")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "poems.getPublished", []byte(`[]`), 0))
	val, err := c.Get(ctx, "poems.getPublished")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(val))
	require.NoError(t, c.Delete(ctx, "poems.getPublished"))
	require.NoError(t, c.Delete(ctx, "poems.getPublished"))
	_, err = c.Get(ctx, "poems.getPublished")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0] = 'x'

	out, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'y'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.now
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "default", []byte("v"), 0))

	clock.advance(time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "default")
	assert.NoError(t, err)
	assert.Equal(t, 1, c.Stats().Items, "expired entries are dropped on read")

	clock.advance(time.Hour)
	_, err = c.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_MaxSizeEvictsSoonestExpiry(t *testing.T) {
	c := newTestMemoryCache(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "soon", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "late", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Stats().Items)
	_, err := c.Get(ctx, "soon")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "late")
	assert.NoError(t, err)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "late", []byte("2b"), time.Hour))
	assert.Equal(t, 2, c.Stats().Items)
	_, err = c.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryCache_FullCacheDropsExpiredFirst(t *testing.T) {
	c := newTestMemoryCache(t, 2)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.now
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stale", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "fresh", []byte("2"), time.Hour))
	clock.advance(2 * time.Second)

	require.NoError(t, c.Set(ctx, "next", []byte("3"), time.Minute))
	_, err := c.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "next")
	assert.NoError(t, err)
}

func TestMemoryCache_ClearAndStats(t *testing.T) {
	c := newTestMemoryCache(t, 0)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("vv"), 0))
	}
	_, _ = c.Get(ctx, "k1")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(5), stats.Sets)
	assert.Equal(t, 5, stats.Items)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Stats().Items)
	assert.Equal(t, int64(5), c.Stats().Sets, "counters survive Clear")
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, CleanupInterval: time.Millisecond})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	ctx := context.Background()
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
	assert.ErrorIs(t, c.Clear(ctx), ErrCacheClosed)
	assert.Equal(t, 0, c.Stats().Items)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := newTestMemoryCache(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("g%d-%d", g, i%20)
				_ = c.Set(ctx, key, []byte("v"), 0)
				_, _ = c.Get(ctx, key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Stats().Items, 50)
}
