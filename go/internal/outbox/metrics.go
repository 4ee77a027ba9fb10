package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "criclink_outbox_events_published_total",
		Help: "Outbox publish attempts, labeled by transport, event type and result",
	}, []string{"transport", "event_type", "result"})

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "criclink_outbox_publish_duration_seconds",
		Help:    "Latency distribution of outbox publishes",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"transport"})

	pendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "criclink_outbox_pending_events",
		Help: "Outbox events not yet delivered",
	})

	publishRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "criclink_outbox_publish_retries_total",
		Help: "Publish attempts beyond the first",
	})
)
