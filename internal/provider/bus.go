// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"context"

	"github.com/ManuGH/backlot/internal/bus"
)

// BusSpecSetter sends catalog.setItemSpec commands over a router.
type BusSpecSetter struct {
	router *bus.Router
}

func NewBusSpecSetter(r *bus.Router) *BusSpecSetter {
	return &BusSpecSetter{router: r}
}

// SetItemSpec implements SpecSetter.
func (s *BusSpecSetter) SetItemSpec(ctx context.Context, spec Spec) (SpecAck, error) {
	return bus.Request[SpecAck](ctx, s.router, bus.CommandSetItemSpec, spec)
}

// BusBroadcaster publishes events on the error and info topics.
type BusBroadcaster struct {
	bus bus.Bus
}

func NewBusBroadcaster(b bus.Bus) *BusBroadcaster {
	return &BusBroadcaster{bus: b}
}

// Broadcast implements Broadcaster.
func (b *BusBroadcaster) Broadcast(ctx context.Context, level Level, ev Event) error {
	return b.bus.Publish(ctx, EventTopic(level), ev)
}

// EventTopic maps a level to its bus topic.
func EventTopic(level Level) string {
	if level == LevelError {
		return bus.TopicErrorEvents
	}
	return bus.TopicInfoEvents
}
