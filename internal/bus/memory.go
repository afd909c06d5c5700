// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
)

const (
	subscriberBuffer = 64
	dropLogEvery     = 100
)

var dropCount atomic.Uint64

// MemoryBus is a non-durable in-process pub/sub. Delivery never blocks:
// a message for a subscriber whose buffer is full is dropped and counted.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]chan Message
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan Message)}
}

func publishDropReason(err error) string {
	switch {
	case err == nil:
		return "buffer_full"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func recordDrop(topic string, err error) {
	reason := publishDropReason(err)
	metrics.IncBusDropReason(topic, reason)
	if count := dropCount.Add(1); count%dropLogEvery == 0 {
		lg := xglog.WithComponent("bus")
		lg.Warn().
			Str("topic", topic).
			Str("reason", reason).
			Uint64("dropped", count).
			Msg("memory bus dropped messages")
	}
}

// Publish delivers msg to every current subscriber of topic. It fails only
// when ctx is already done; slow subscribers lose the message instead.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	if err := ctx.Err(); err != nil {
		recordDrop(topic, err)
		return fmt.Errorf("publish topic %q: %w", topic, err)
	}

	// The read lock keeps Close from closing a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
		default:
			recordDrop(topic, nil)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscriber, error) {
	ch := make(chan Message, subscriberBuffer)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	return &memSub{b: b, topic: topic, ch: ch}, nil
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message
	once  sync.Once
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		close(s.ch)
	})
	return nil
}

var _ Bus = (*MemoryBus)(nil)
