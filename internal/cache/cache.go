// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache provides typed key/value caches with per-entry TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/backlot/internal/clock"
)

// Cache is a typed TTL cache safe for concurrent use.
type Cache[V any] interface {
	// Get returns the value for key unless it is missing or expired.
	Get(ctx context.Context, key string) (V, bool)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	// Delete removes key.
	Delete(ctx context.Context, key string)
	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context)
	// Stats returns counters since creation.
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
	timer     clock.Timer
}

// MemoryCache keeps entries in a map and removes each one with a timer when
// its TTL elapses. Get also checks the deadline so an entry is never served
// past expiry even if its timer has not run yet.
type MemoryCache[V any] struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*entry[V]
	stats   Stats
}

// NewMemory returns an empty MemoryCache. A nil clock uses the wall clock.
func NewMemory[V any](clk clock.Clock) *MemoryCache[V] {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryCache[V]{
		clock:   clk,
		entries: make(map[string]*entry[V]),
	}
}

// Get implements Cache.
func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.removeLocked(key, e)
		c.stats.Misses++
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set implements Cache. A non-positive ttl stores nothing.
func (c *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		old.timer.Stop()
	}
	e := &entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
	e.timer = c.clock.AfterFunc(ttl, func() { c.expire(key, e) })
	c.entries[key] = e
	c.stats.Sets++
}

// expire drops e if it is still the entry stored under key.
func (c *MemoryCache[V]) expire(key string, e *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur == e {
		delete(c.entries, key)
		c.stats.Evictions++
	}
}

func (c *MemoryCache[V]) removeLocked(key string, e *entry[V]) {
	e.timer.Stop()
	delete(c.entries, key)
	c.stats.Evictions++
}

// Delete implements Cache.
func (c *MemoryCache[V]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.timer.Stop()
		delete(c.entries, key)
	}
}

// Clear implements Cache.
func (c *MemoryCache[V]) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.timer.Stop()
	}
	c.entries = make(map[string]*entry[V])
}

// Stats implements Cache.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.CurrentSize = len(c.entries)
	return s
}
