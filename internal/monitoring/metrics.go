// Package monitoring exposes the Prometheus metrics of the box
// office. Counters are bumped from the handlers after each completed
// operation; the revenue gauge tracks the registry-wide fee totals.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_purchases_total",
			Help: "Completed purchase sessions per event",
		},
		[]string{"event_id", "status"},
	)

	seatsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_seats_sold_total",
			Help: "Seats sold per event and category",
		},
		[]string{"event_id", "category"},
	)

	returns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_seat_returns_total",
			Help: "Single-seat returns per event",
		},
		[]string{"event_id"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_cancellations_total",
			Help: "Full ticket cancellations, by trigger",
		},
		[]string{"trigger"},
	)

	feesCollected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "boxoffice_fees_collected",
			Help: "Registry-wide running fee totals by kind",
		},
		[]string{"kind"},
	)
)

// TrackPurchase records the outcome of one purchase session.
func TrackPurchase(eventID, status string) {
	purchases.WithLabelValues(eventID, status).Inc()
}

// TrackSeatsSold records seats sold in one purchase increment.
func TrackSeatsSold(eventID, category string, n int) {
	seatsSold.WithLabelValues(eventID, category).Add(float64(n))
}

// TrackReturn records a single-seat return.
func TrackReturn(eventID string) {
	returns.WithLabelValues(eventID).Inc()
}

// TrackCancellation records a full ticket cancellation. trigger is
// "customer" or "event_cancelled".
func TrackCancellation(trigger string) {
	cancellations.WithLabelValues(trigger).Inc()
}

// SetFeeTotal publishes one registry-wide fee total. Decimal loses
// precision going to float64, which is acceptable for a gauge.
func SetFeeTotal(kind string, v decimal.Decimal) {
	f, _ := v.Float64()
	feesCollected.WithLabelValues(kind).Set(f)
}
