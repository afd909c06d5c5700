// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlot_resolve_total",
		Help: "Spec resolutions by source and outcome (code of the failure, or ok)",
	}, []string{"source", "outcome"})

	fanoutSpecsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlot_fanout_specs_total",
		Help: "Child specs emitted during fan-out by spec type",
	}, []string{"type"})

	playableFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backlot_playable_url_fallback_total",
		Help: "Asset resolutions that continued without a playable URL",
	})
)

// IncResolve records the outcome of one resolution.
func IncResolve(source, outcome string) {
	if outcome == "" {
		outcome = "ok"
	}
	resolveTotal.WithLabelValues(source, outcome).Inc()
}

// AddFanoutSpecs records emitted child specs.
func AddFanoutSpecs(specType string, n int) {
	if n <= 0 {
		return
	}
	fanoutSpecsTotal.WithLabelValues(specType).Add(float64(n))
}

// IncPlayableFallback records a STREAM_UNDEFINED fallback.
func IncPlayableFallback() {
	playableFallbackTotal.Inc()
}
