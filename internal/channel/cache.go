// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/backlot/internal/cache"
	"github.com/ManuGH/backlot/internal/clock"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
)

// DefaultTTL is how long a looked-up channel may be served from memory.
const DefaultTTL = 300 * time.Second

// Cache memoizes Lookup results for a fixed TTL. Concurrent misses for
// the same id share one lookup. Failed lookups are not cached.
type Cache struct {
	lookup Lookup
	store  cache.Cache[Channel]
	ttl    time.Duration
	clock  clock.Clock
	group  singleflight.Group
	logger zerolog.Logger
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithStore replaces the in-memory backend.
func WithStore(store cache.Cache[Channel]) CacheOption {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithClock sets the clock of the default in-memory backend.
// It has no effect when combined with WithStore.
func WithClock(clk clock.Clock) CacheOption {
	return func(c *Cache) {
		c.clock = clk
	}
}

// NewCache wraps lookup with a TTL cache.
func NewCache(lookup Lookup, opts ...CacheOption) *Cache {
	c := &Cache{
		lookup: lookup,
		ttl:    DefaultTTL,
		logger: xglog.WithComponent("channel-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = cache.NewMemory[Channel](c.clock)
	}
	return c
}

// Get returns the channel for id, from memory when an unexpired entry
// exists, otherwise through one lookup whose result is stored under the
// returned channel's own id.
func (c *Cache) Get(ctx context.Context, id string) (Channel, error) {
	if ch, ok := c.store.Get(ctx, id); ok {
		metrics.IncChannelCache("hit")
		return ch, nil
	}

	resCh := c.group.DoChan(id, func() (any, error) {
		// Waiters share this call, so it must outlive any one caller.
		lctx := context.WithoutCancel(ctx)
		ch, err := c.lookup.Lookup(lctx, id)
		if err != nil {
			return Channel{}, err
		}
		key := ch.ID
		if key == "" {
			key = id
		}
		c.store.Set(lctx, key, ch, c.ttl)
		return ch, nil
	})

	select {
	case <-ctx.Done():
		return Channel{}, ctx.Err()
	case res := <-resCh:
		if res.Err != nil {
			metrics.IncChannelCache("error")
			lg := xglog.WithContext(ctx, c.logger)
			lg.Warn().
				Err(res.Err).
				Str(xglog.FieldEvent, "channel.lookup_failed").
				Str(xglog.FieldChannelID, id).
				Msg("channel lookup failed")
			return Channel{}, fmt.Errorf("get channel %q: %w", id, res.Err)
		}
		metrics.IncChannelCache("miss")
		return res.Val.(Channel), nil
	}
}

// Lookup implements Lookup so a Cache can stand in for its source.
func (c *Cache) Lookup(ctx context.Context, id string) (Channel, error) {
	return c.Get(ctx, id)
}

// Invalidate drops the cached entry for id.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	c.store.Delete(ctx, id)
}

// Clear drops every cached channel.
func (c *Cache) Clear(ctx context.Context) {
	c.store.Clear(ctx)
}
