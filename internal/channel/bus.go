// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package channel

import (
	"context"
	"fmt"

	"github.com/ManuGH/backlot/internal/bus"
)

// Query is the payload of the channel lookup query.
type Query struct {
	ID string `json:"id"`
}

// BusLookup resolves channels through the store.get.channel query.
type BusLookup struct {
	router *bus.Router
}

func NewBusLookup(r *bus.Router) *BusLookup {
	return &BusLookup{router: r}
}

// Lookup implements Lookup.
func (l *BusLookup) Lookup(ctx context.Context, id string) (Channel, error) {
	return bus.Request[Channel](ctx, l.router, bus.QueryGetChannel, Query{ID: id})
}

// Serve answers store.get.channel queries from src.
func Serve(r *bus.Router, src Lookup) error {
	return r.Handle(bus.QueryGetChannel, func(ctx context.Context, payload any) (any, error) {
		q, ok := payload.(Query)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected payload %T", bus.QueryGetChannel, payload)
		}
		return src.Lookup(ctx, q.ID)
	})
}
