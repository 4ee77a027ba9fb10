package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "criclink_request_transitions_total",
			Help: "Request lifecycle transitions by kind and resulting status",
		},
		[]string{"kind", "status"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "criclink_request_side_effect_failures_total",
			Help: "Accepts rolled back because the side effect failed",
		},
		[]string{"kind"},
	)
)
