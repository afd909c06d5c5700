// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"sync"

	"github.com/ManuGH/backlot/internal/bus"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/provider"
)

// watchEvents logs pipeline events until ctx ends or stop is called.
func (s *Server) watchEvents(ctx context.Context) (stop func(), err error) {
	topics := []string{bus.TopicErrorEvents, bus.TopicInfoEvents}
	subs := make([]bus.Subscriber, 0, len(topics))
	for _, topic := range topics {
		sub, err := s.opts.Events.Subscribe(ctx, topic)
		if err != nil {
			for _, prev := range subs {
				_ = prev.Close()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sub.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-sub.C():
					if !ok {
						return
					}
					s.logEvent(msg)
				}
			}
		}()
	}

	return func() {
		cancel()
		wg.Wait()
	}, nil
}

func (s *Server) logEvent(msg bus.Message) {
	ev, ok := msg.(provider.Event)
	if !ok {
		s.logger.Debug().Interface("message", msg).Msg("ignoring unknown event payload")
		return
	}
	evt := s.logger.Info()
	if ev.Level == provider.LevelError {
		evt = s.logger.Warn()
	}
	evt.Str("event_id", ev.ID).
		Str(xglog.FieldCode, ev.Code).
		Str(xglog.FieldSpecID, ev.Spec.ID).
		Str(xglog.FieldChannelID, ev.Spec.Channel).
		Str(xglog.FieldSource, ev.Spec.Source).
		Msg(ev.Message)
}
