// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xglog "github.com/ManuGH/backlot/internal/log"
)

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = xglog.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	r := NewRouter(StackConfig{RateLimit: 2, RateWindow: time.Minute})
	r.Get("/x", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	called := 0
	h := RateLimit(0, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called++ }))
	for range 5 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, 5, called)
}

func TestObserve_CapturesStatus(t *testing.T) {
	r := NewRouter(StackConfig{})
	r.Get("/teapot/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot/1", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short", rec.Body.String())
}

func TestShouldTrace(t *testing.T) {
	assert.False(t, shouldTrace(httptest.NewRequest(http.MethodGet, "/metrics", nil)))
	assert.False(t, shouldTrace(httptest.NewRequest(http.MethodGet, "/healthz", nil)))
	assert.True(t, shouldTrace(httptest.NewRequest(http.MethodPost, "/v1/resolve", nil)))
	assert.Empty(t, TraceID(httptest.NewRequest(http.MethodGet, "/", nil)))
}
