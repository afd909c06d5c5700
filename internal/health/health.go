// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package health aggregates component checks for the liveness and
// readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	xglog "github.com/ManuGH/backlot/internal/log"
)

// Status is the state of one component or of the whole process.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the JSON body of both endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one named component check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	ID string
	Fn func(ctx context.Context) CheckResult
}

func (c CheckFunc) Name() string                          { return c.ID }
func (c CheckFunc) Check(ctx context.Context) CheckResult { return c.Fn(ctx) }

// ErrorCheck reports unhealthy when fn fails.
func ErrorCheck(name string, fn func(ctx context.Context) error) Checker {
	return CheckFunc{ID: name, Fn: func(ctx context.Context) CheckResult {
		if err := fn(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	}}
}

// Manager runs registered checks.
type Manager struct {
	version  string
	timeout  time.Duration
	checkers []Checker
	now      func() time.Time
}

// NewManager creates a manager reporting version.
func NewManager(version string) *Manager {
	return &Manager{version: version, timeout: 2 * time.Second, now: time.Now}
}

// Register adds checkers.
func (m *Manager) Register(checkers ...Checker) {
	m.checkers = append(m.checkers, checkers...)
}

// Run executes every check. Ready is false when any check is unhealthy.
func (m *Manager) Run(ctx context.Context) Response {
	resp := Response{Status: StatusHealthy, Ready: true, Version: m.version, Timestamp: m.now()}
	if len(m.checkers) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp.Checks = make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		res := c.Check(ctx)
		resp.Checks[c.Name()] = res
		switch res.Status {
		case StatusUnhealthy:
			resp.Status = StatusUnhealthy
			resp.Ready = false
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// ServeHealth is the liveness probe. It always answers 200 and runs the
// checks only with ?verbose=true.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: StatusHealthy, Ready: true, Version: m.version, Timestamp: m.now()}
	if r.URL.Query().Get("verbose") == "true" {
		resp = m.Run(r.Context())
	}
	m.write(w, r, http.StatusOK, resp)
}

// ServeReady is the readiness probe: 503 while any check is unhealthy.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Run(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	m.write(w, r, code, resp)
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "health")
		logger.Error().Err(err).Str(xglog.FieldEvent, "health.encode_error").Msg("failed to encode health response")
	}
}
