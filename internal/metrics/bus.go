// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlot_bus_dropped_total",
		Help: "Total number of in-memory bus event drops by topic and reason",
	}, []string{"topic", "reason"})

	BusCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlot_bus_commands_total",
		Help: "Commands and queries routed through the in-memory bus by name and outcome",
	}, []string{"name", "outcome"})
)

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}

// IncBusCommand records a routed command or query.
func IncBusCommand(name, outcome string) {
	BusCommandsTotal.WithLabelValues(name, outcome).Inc()
}
