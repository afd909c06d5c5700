// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const opTimeout = 2 * time.Second

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisClient dials Redis and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// RedisCache stores JSON-encoded values under a key prefix and relies on
// Redis expiry for TTL. Redis failures are logged and reported as misses.
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedis wraps an existing client. Every key is stored as prefix+key.
func NewRedis[V any](client *redis.Client, prefix string, logger zerolog.Logger) *RedisCache[V] {
	return &RedisCache[V]{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache[V]) key(k string) string { return c.prefix + k }

// Get implements Cache.
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var zero V
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return zero, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		c.stats.misses.Add(1)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("json unmarshal failed")
		c.stats.misses.Add(1)
		return zero, false
	}
	c.stats.hits.Add(1)
	return v, true
}

// Set implements Cache. A non-positive ttl stores nothing.
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("json marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		return
	}
	c.stats.sets.Add(1)
}

// Delete implements Cache.
func (c *RedisCache[V]) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Clear removes the keys under the cache's prefix only.
func (c *RedisCache[V]) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	keys, err := c.scan(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis clear failed")
	}
}

func (c *RedisCache[V]) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Stats implements Cache. Redis evicts on its own, so Evictions stays zero.
func (c *RedisCache[V]) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	keys, err := c.scan(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}
	return Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Sets:        c.stats.sets.Load(),
		CurrentSize: len(keys),
	}
}

// HealthCheck pings Redis.
func (c *RedisCache[V]) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
