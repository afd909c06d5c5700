// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var channelCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "backlot_channel_cache_total",
	Help: "Channel cache lookups by result (hit|miss|error|evict)",
}, []string{"result"})

// IncChannelCache records a channel cache outcome.
func IncChannelCache(result string) {
	if result == "" {
		result = "unknown"
	}
	channelCacheTotal.WithLabelValues(result).Inc()
}
