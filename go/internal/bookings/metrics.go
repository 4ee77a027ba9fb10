package bookings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "criclink_booking_conflicts_total",
		Help: "Booking attempts rejected because the slot overlapped an active booking",
	})

	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "criclink_booking_transitions_total",
		Help: "Booking status changes, labeled by resulting status",
	}, []string{"status"})
)
