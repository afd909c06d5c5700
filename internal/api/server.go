// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the resolution pipeline and the catalog method
// registry over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/backlot/internal/api/middleware"
	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/bus"
	"github.com/ManuGH/backlot/internal/catalog"
	"github.com/ManuGH/backlot/internal/health"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/provider"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxBodyBytes      = 1 << 20
)

// Resolver runs one resolution request. *provider.Provider satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, req provider.Request) (any, error)
}

// Options wires a Server.
type Options struct {
	Resolver Resolver
	Client   *backlot.Client
	Registry *catalog.Registry
	// Events, when set, is drained by Run and every event is logged.
	Events bus.Bus
	// RateLimit is the per-IP request budget per minute; 0 disables it.
	RateLimit int
	Tracing   bool
	// Health serves /healthz and /readyz when set.
	Health *health.Manager
	// APIToken guards /v1 when set. Method calls sign arbitrary catalog
	// paths with the server's credentials, so they are refused outright
	// while no token is configured.
	APIToken string
}

// Server is the HTTP entry point.
type Server struct {
	opts    Options
	handler http.Handler
	logger  zerolog.Logger
}

// New builds the router. Resolver is required.
func New(opts Options) (*Server, error) {
	if opts.Resolver == nil {
		return nil, errors.New("api: resolver is required")
	}
	s := &Server{opts: opts, logger: xglog.WithComponent("api")}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	stack := middleware.StackConfig{RateLimit: s.opts.RateLimit}
	if s.opts.Tracing {
		stack.TracingService = "backlot"
	}
	r := middleware.NewRouter(stack)

	if s.opts.Health != nil {
		r.Get("/healthz", s.opts.Health.ServeHealth)
		r.Get("/readyz", s.opts.Health.ServeReady)
	} else {
		r.Get("/healthz", s.handleHealth)
		r.Get("/readyz", s.handleHealth)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(s.opts.APIToken, true))
		r.Post("/resolve", s.handleResolve)
		r.Get("/sources", s.handleSources)
		r.Get("/methods", s.handleMethods)
		r.With(middleware.Auth(s.opts.APIToken, false)).Post("/methods/{name}", s.handleCallMethod)
		r.Get("/specs", s.handleSpecs)
		r.Get("/specs/{id}", s.handleSpec)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.Events != nil {
		stop, err := s.watchEvents(ctx)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer stop()
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}
