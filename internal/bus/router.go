// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
)

var (
	// ErrNoHandler is returned when nothing serves a command name.
	ErrNoHandler = errors.New("bus: no handler registered")
	// ErrDuplicateHandler is returned when a name is registered twice.
	ErrDuplicateHandler = errors.New("bus: handler already registered")
	// ErrBadReply is returned when a reply has an unexpected type.
	ErrBadReply = errors.New("bus: unexpected reply type")
)

// HandlerFunc serves one command or query.
type HandlerFunc func(ctx context.Context, payload any) (any, error)

// Router dispatches request/reply messages to the single handler
// registered under their name.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   zerolog.Logger
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   xglog.WithComponent("bus"),
	}
}

// Handle registers h under name.
func (r *Router) Handle(name string, h HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	r.handlers[name] = h
	return nil
}

// Send invokes the handler for name and returns its reply.
func (r *Router) Send(ctx context.Context, name string, payload any) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		metrics.IncBusCommand(name, "unhandled")
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	start := time.Now()
	reply, err := h(ctx, payload)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.IncBusCommand(name, outcome)

	lg := xglog.WithContext(ctx, r.logger)
	lg.Debug().
		Str(xglog.FieldEvent, "bus.command").
		Str("command", name).
		Str("outcome", outcome).
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("command routed")
	return reply, err
}

// Request sends a typed command and asserts the reply type.
func Request[Resp any](ctx context.Context, r *Router, name string, payload any) (Resp, error) {
	var zero Resp
	reply, err := r.Send(ctx, name, payload)
	if err != nil {
		return zero, err
	}
	out, ok := reply.(Resp)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrBadReply, name, reply)
	}
	return out, nil
}
