// Package metrics exposes booking counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons used as label values.
const (
	ReasonNotRegistered = "not_registered"
	ReasonCapacity      = "capacity"
	ReasonBlacklisted   = "blacklisted"
	ReasonInvalid       = "invalid"
	ReasonInternal      = "internal"
)

var (
	bookingsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_created_total",
			Help: "Total number of bookings committed",
		},
	)

	bookedSeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_total",
			Help: "Total number of seats booked",
		},
	)

	bookingsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rejected_total",
			Help: "Total number of rejected booking requests",
		},
		[]string{"reason"},
	)

	snapshotsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_snapshots_total",
			Help: "Total number of snapshot save attempts",
		},
		[]string{"result"},
	)

	blacklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_blacklist_size",
			Help: "Number of customers on the blacklist",
		},
	)
)

// RecordBooking records a committed booking of the given size.
func RecordBooking(seats int) {
	bookingsCreatedTotal.Inc()
	bookedSeatsTotal.Add(float64(seats))
}

// RecordRejection records a rejected booking request.
func RecordRejection(reason string) {
	bookingsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordSnapshot records a snapshot save attempt.
func RecordSnapshot(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	snapshotsSavedTotal.WithLabelValues(result).Inc()
}

// SetBlacklistSize publishes the current blacklist size.
func SetBlacklistSize(n int64) {
	blacklistSize.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
