// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/metrics"
)

// statusWriter captures the status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// routePattern avoids label cardinality blowups from raw paths.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Observe records prometheus metrics and an access log line per request.
func Observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		done := metrics.HTTPRequestStarted()
		defer done()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		path := routePattern(r)
		metrics.ObserveHTTPRequest(r.Method, path, strconv.Itoa(sw.status), elapsed.Seconds(), sw.bytes)

		logger := xglog.WithComponentFromContext(r.Context(), "api")
		evt := logger.Info()
		if sw.status >= http.StatusInternalServerError {
			evt = logger.Warn()
		}
		if id := TraceID(r); id != "" {
			evt = evt.Str("trace_id", id)
		}
		evt.Str("method", r.Method).
			Str(xglog.FieldPath, path).
			Int(xglog.FieldStatus, sw.status).
			Int64(xglog.FieldDuration, elapsed.Milliseconds()).
			Msg("http request")
	})
}
