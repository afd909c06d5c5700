// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/backlot/internal/cache"
	"github.com/ManuGH/backlot/internal/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type countingLookup struct {
	calls atomic.Int32
	fn    func(id string) (Channel, error)
}

func (l *countingLookup) Lookup(_ context.Context, id string) (Channel, error) {
	l.calls.Add(1)
	if l.fn != nil {
		return l.fn(id)
	}
	return Channel{ID: id, Name: "channel " + id}, nil
}

func TestCache_HitWithinTTL(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(epoch)
	src := &countingLookup{}
	c := NewCache(src, WithClock(clk))

	ch, err := c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, "ch1", ch.ID)

	clk.Advance(299 * time.Second)
	_, err = c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	clk.Advance(time.Second)
	_, err = c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "expired entry must be fetched again")
}

func TestCache_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store offline")
	var fail atomic.Bool
	fail.Store(true)
	src := &countingLookup{fn: func(id string) (Channel, error) {
		if fail.Load() {
			return Channel{}, boom
		}
		return Channel{ID: id}, nil
	}}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	_, err := c.Get(ctx, "ch1")
	assert.ErrorIs(t, err, boom)

	fail.Store(false)
	ch, err := c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, "ch1", ch.ID)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_StoresUnderResultID(t *testing.T) {
	ctx := context.Background()
	src := &countingLookup{fn: func(string) (Channel, error) {
		return Channel{ID: "canonical"}, nil
	}}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	_, err := c.Get(ctx, "alias")
	require.NoError(t, err)
	_, err = c.Get(ctx, "canonical")
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_ConcurrentMissesShareLookup(t *testing.T) {
	release := make(chan struct{})
	src := &countingLookup{fn: func(id string) (Channel, error) {
		<-release
		return Channel{ID: id}, nil
	}}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			ch, err := c.Get(context.Background(), "ch1")
			assert.NoError(t, err)
			assert.Equal(t, "ch1", ch.ID)
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	src := &countingLookup{fn: func(id string) (Channel, error) {
		<-release
		return Channel{ID: id}, nil
	}}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "ch1")
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		_, err := c.Get(context.Background(), "ch1")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), src.calls.Load(), "abandoned lookup must still populate the cache")
}

func TestCache_RedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	src := &countingLookup{}
	c := NewCache(src, WithStore(cache.NewRedis[Channel](client, "test:channel-cache:", zerolog.Nop())))

	_, err := c.Get(ctx, "ch1")
	require.NoError(t, err)
	_, err = c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	mr.FastForward(DefaultTTL + time.Second)
	_, err = c.Get(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	src := &countingLookup{}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	_, _ = c.Get(ctx, "ch1")
	c.Invalidate(ctx, "ch1")
	_, _ = c.Get(ctx, "ch1")
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	src := &countingLookup{}
	c := NewCache(src, WithClock(clock.NewFake(epoch)))

	_, _ = c.Get(ctx, "ch1")
	_, _ = c.Get(ctx, "ch2")
	c.Clear(ctx)
	_, _ = c.Get(ctx, "ch1")
	_, _ = c.Get(ctx, "ch2")
	assert.Equal(t, int32(4), src.calls.Load())
}
