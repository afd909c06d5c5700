// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backlot_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backlot_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backlot_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path", "status"})
)

// HTTPRequestStarted tracks an in-flight request; call the returned func when done.
func HTTPRequestStarted() func() {
	httpRequestsInFlight.Inc()
	return httpRequestsInFlight.Dec
}

// ObserveHTTPRequest records one finished request. path must be a route pattern.
func ObserveHTTPRequest(method, path, status string, seconds float64, bytes int) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
	if bytes > 0 {
		httpResponseSize.WithLabelValues(method, path, status).Observe(float64(bytes))
	}
}
