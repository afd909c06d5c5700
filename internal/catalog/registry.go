// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package catalog is an in-memory spec registry that acknowledges
// setItemSpec commands with a stable resource id per spec.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/backlot/internal/bus"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/provider"
)

// ErrInvalidSpec is returned for specs without a type.
var ErrInvalidSpec = errors.New("catalog: spec type is required")

// Entry is one registered spec.
type Entry struct {
	Spec      provider.Spec    `json:"spec"`
	Ack       provider.SpecAck `json:"ack"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Registry stores specs by id. Re-registering an id keeps its resource.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
	logger  zerolog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		now:     time.Now,
		logger:  xglog.WithComponent("catalog"),
	}
}

// SetItemSpec implements provider.SpecSetter. A spec without an id gets
// a generated one.
func (r *Registry) SetItemSpec(ctx context.Context, spec provider.Spec) (provider.SpecAck, error) {
	if spec.Type == "" {
		return provider.SpecAck{}, ErrInvalidSpec
	}
	if spec.ID == "" {
		spec.ID = "spec-" + uuid.NewString()
	}

	r.mu.Lock()
	entry, ok := r.entries[spec.ID]
	if !ok {
		entry.Ack = provider.SpecAck{Type: spec.Type, Resource: uuid.NewString()}
	}
	entry.Ack.Type = spec.Type
	entry.Spec = spec
	entry.UpdatedAt = r.now()
	r.entries[spec.ID] = entry
	r.mu.Unlock()

	lg := xglog.WithContext(ctx, r.logger)
	lg.Debug().
		Str(xglog.FieldEvent, "catalog.set_item_spec").
		Str(xglog.FieldSpecID, spec.ID).
		Str("resource", entry.Ack.Resource).
		Bool("created", !ok).
		Msg("spec registered")
	return entry.Ack, nil
}

// Get returns the entry for a spec id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// List returns all entries ordered by spec id, optionally filtered by channel.
func (r *Registry) List(channelID string) []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if channelID == "" || e.Spec.Channel == channelID {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Spec.ID < out[j].Spec.ID })
	return out
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Serve answers catalog.setItemSpec commands.
func (r *Registry) Serve(router *bus.Router) error {
	return router.Handle(bus.CommandSetItemSpec, func(ctx context.Context, payload any) (any, error) {
		spec, ok := payload.(provider.Spec)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected payload %T", bus.CommandSetItemSpec, payload)
		}
		return r.SetItemSpec(ctx, spec)
	})
}
