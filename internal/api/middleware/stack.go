// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package middleware holds the HTTP ingress middleware stack.
package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// StackConfig configures ApplyStack.
type StackConfig struct {
	TracingService string // empty disables tracing
	RateLimit      int    // requests per RateWindow per IP; 0 disables
	RateWindow     time.Duration
}

// NewRouter constructs a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the ingress middleware. Recoverer is outermost.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	r.Use(Observe)
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	r.Use(RateLimit(cfg.RateLimit, window))
}
