// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StaticStore serves channels from configuration.
type StaticStore struct {
	mu   sync.RWMutex
	byID map[string]Channel
}

// NewStaticStore indexes channels by id. Later duplicates win.
func NewStaticStore(channels []Channel) *StaticStore {
	s := &StaticStore{}
	s.Replace(channels)
	return s
}

// Replace swaps the whole channel set.
func (s *StaticStore) Replace(channels []Channel) {
	byID := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	s.mu.Lock()
	s.byID = byID
	s.mu.Unlock()
}

// Lookup implements Lookup.
func (s *StaticStore) Lookup(_ context.Context, id string) (Channel, error) {
	s.mu.RLock()
	ch, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Channel{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ch, nil
}

// DefaultRedisPrefix namespaces channel records in Redis.
const DefaultRedisPrefix = "backlot:channel:"

// RedisStore keeps channel records as JSON strings.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a store using prefix, or DefaultRedisPrefix when empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Lookup implements Lookup.
func (s *RedisStore) Lookup(ctx context.Context, id string) (Channel, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Channel{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Channel{}, fmt.Errorf("redis get channel %s: %w", id, err)
	}
	var ch Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return Channel{}, fmt.Errorf("decode channel %s: %w", id, err)
	}
	return ch, nil
}

// Put writes ch without expiry.
func (s *RedisStore) Put(ctx context.Context, ch Channel) error {
	if ch.ID == "" {
		return errors.New("channel id is required")
	}
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode channel %s: %w", ch.ID, err)
	}
	if err := s.client.Set(ctx, s.prefix+ch.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set channel %s: %w", ch.ID, err)
	}
	return nil
}

// Delete removes the record for id. Missing records are not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete channel %s: %w", id, err)
	}
	return nil
}
