// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bus is the in-process message channel between the resolution
// pipeline and its collaborators: fire-and-forget events on topics, and
// request/reply commands and queries routed by name.
package bus

import "context"

// Well-known names.
const (
	TopicErrorEvents = "events.error"
	TopicInfoEvents  = "events.info"

	CommandSetItemSpec = "catalog.setItemSpec"
	QueryGetChannel    = "store.get.channel"
)

// Message is an opaque event payload.
type Message interface{}

// Subscriber receives messages published on one topic.
type Subscriber interface {
	// C returns a read-only message channel.
	C() <-chan Message
	// Close unsubscribes.
	Close() error
}

// Bus is the event transport abstraction.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}
