// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlot_catalog_requests_total",
		Help: "Catalog API requests by HTTP status (0 = transport failure)",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backlot_catalog_request_duration_seconds",
		Help:    "Catalog API round-trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	catalogRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backlot_catalog_rate_limited_total",
		Help: "Catalog API responses with HTTP 429 that were scheduled for retry",
	})

	catalogQueuePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backlot_catalog_queue_pending",
		Help: "Catalog requests waiting for the in-flight slot",
	})
)

// ObserveCatalogRequest records one completed catalog round-trip.
func ObserveCatalogRequest(status int, elapsed time.Duration) {
	catalogRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	catalogRequestDuration.Observe(elapsed.Seconds())
}

// IncCatalogRateLimited counts a 429 response.
func IncCatalogRateLimited() {
	catalogRateLimitedTotal.Inc()
}

// SetCatalogQueuePending publishes the current pending depth.
func SetCatalogQueuePending(n int) {
	catalogQueuePending.Set(float64(n))
}
