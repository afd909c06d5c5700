// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/ManuGH/backlot/internal/api"
	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/bus"
	"github.com/ManuGH/backlot/internal/cache"
	"github.com/ManuGH/backlot/internal/catalog"
	"github.com/ManuGH/backlot/internal/channel"
	"github.com/ManuGH/backlot/internal/config"
	"github.com/ManuGH/backlot/internal/health"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/platform/httpx"
	"github.com/ManuGH/backlot/internal/playable"
	"github.com/ManuGH/backlot/internal/provider"
	"github.com/ManuGH/backlot/internal/version"
)

const (
	channelCachePrefix = "backlot:cache:channel:"
	// queueBacklogDegraded marks readiness degraded above this many waiting calls.
	queueBacklogDegraded = 100
)

type appOptions struct {
	RateLimit int
	Tracing   bool
}

// app is the fully wired serve mode.
type app struct {
	Client   *backlot.Client
	Provider *provider.Provider
	Registry *catalog.Registry
	Channels *channel.Cache
	Bus      *bus.MemoryBus
	Router   *bus.Router
	Server   *api.Server
	Health   *health.Manager

	redis      *redis.Client
	static     *channel.StaticStore
	redisStore *channel.RedisStore

	mu         sync.Mutex
	channelIDs map[string]bool
}

func newCatalogClient(cfg config.Config) (*backlot.Client, error) {
	return backlot.New(backlot.Options{
		BaseURL:     cfg.BaseURL,
		Credentials: cfg.Credentials(),
		HTTP:        httpx.NewClient("backlot", cfg.HTTPTimeout),
		RetryDelay:  cfg.RetryDelay,
		Order:       cfg.Order(),
		Rate:        rate.Limit(cfg.RequestRate),
		Burst:       1,
	})
}

// buildApp wires every component. Channel lookups and spec registration go
// through the bus so the provider sees the same boundaries as in a host
// process.
func buildApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	logger := xglog.WithComponent("cli")

	client, err := newCatalogClient(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		Client:   client,
		Bus:      bus.NewMemoryBus(),
		Router:   bus.NewRouter(),
		Registry: catalog.NewRegistry(),
		Health:   health.NewManager(version.Version),
	}
	a.Health.Register(queueCheck(client.Queue()))
	if err := a.Registry.Serve(a.Router); err != nil {
		return nil, err
	}

	a.static = channel.NewStaticStore(cfg.Channels)
	a.channelIDs = channelIDs(cfg.Channels)
	var source channel.Lookup = a.static
	cacheOpts := []channel.CacheOption{channel.WithTTL(cfg.ChannelTTL)}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rc
		a.Health.Register(health.ErrorCheck("redis", func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}))
		store := channel.NewRedisStore(rc, "")
		for _, ch := range cfg.Channels {
			if err := store.Put(ctx, ch); err != nil {
				a.Close()
				return nil, fmt.Errorf("seed channel %s: %w", ch.ID, err)
			}
		}
		a.redisStore = store
		source = store
		cacheOpts = append(cacheOpts, channel.WithStore(
			cache.NewRedis[channel.Channel](rc, channelCachePrefix, xglog.WithComponent("channel-cache")),
		))
		logger.Info().Str("addr", cfg.Redis.Addr).Int("channels", len(cfg.Channels)).Msg("using redis channel store")
	}
	if err := channel.Serve(a.Router, source); err != nil {
		a.Close()
		return nil, err
	}
	a.Channels = channel.NewCache(channel.NewBusLookup(a.Router), cacheOpts...)

	a.Provider, err = provider.New(provider.Options{
		Catalog:  client,
		Channels: a.Channels,
		Specs:    provider.NewBusSpecSetter(a.Router),
		Events:   provider.NewBusBroadcaster(a.Bus),
		Playable: playable.New(cfg.PlayerURL, httpx.NewClient("playable", cfg.HTTPTimeout)),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Server, err = api.New(api.Options{
		Resolver:  a.Provider,
		Client:    client,
		Registry:  a.Registry,
		Events:    a.Bus,
		RateLimit: opts.RateLimit,
		Tracing:   opts.Tracing,
		Health:    a.Health,
		APIToken:  cfg.APIToken,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// ApplyChannels replaces the served channel set and drops cached lookups.
// Records for removed ids are deleted from Redis.
func (a *app) ApplyChannels(ctx context.Context, channels []channel.Channel) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := channelIDs(channels)
	if a.redisStore != nil {
		for _, ch := range channels {
			if err := a.redisStore.Put(ctx, ch); err != nil {
				return fmt.Errorf("store channel %s: %w", ch.ID, err)
			}
		}
		for id := range a.channelIDs {
			if !next[id] {
				if err := a.redisStore.Delete(ctx, id); err != nil {
					return err
				}
			}
		}
	} else {
		a.static.Replace(channels)
	}
	a.channelIDs = next
	a.Channels.Clear(ctx)

	lg := xglog.WithComponent("cli")
	lg.Info().
		Str(xglog.FieldEvent, "channels.reloaded").
		Int("channels", len(channels)).
		Msg("channel list applied")
	return nil
}

func channelIDs(channels []channel.Channel) map[string]bool {
	ids := make(map[string]bool, len(channels))
	for _, ch := range channels {
		ids[ch.ID] = true
	}
	return ids
}

func queueCheck(q *backlot.Queue) health.Checker {
	return health.CheckFunc{ID: "catalog-queue", Fn: func(context.Context) health.CheckResult {
		n := q.Pending()
		if n > queueBacklogDegraded {
			return health.CheckResult{Status: health.StatusDegraded, Message: fmt.Sprintf("%d calls waiting", n)}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: fmt.Sprintf("%d calls waiting", n)}
	}}
}

// Close releases external connections.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}
