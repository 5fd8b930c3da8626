package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics exposes counters/histograms for the reservation flow.
type ReservationMetrics struct {
	holdsCreated      prometheus.Counter
	holdConflicts     *prometheus.CounterVec
	bookingsConfirmed prometheus.Counter
	bookingsCancelled prometheus.Counter
	holdsSwept        prometheus.Counter
	resolveLatency    prometheus.Histogram
}

func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	m := &ReservationMetrics{
		holdsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "holds_created_total",
			Help:      "Total holds successfully created",
		}),
		holdConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "conflicts_total",
			Help:      "Reservation attempts rejected because the slot was contested",
		}, []string{"operation"}),
		bookingsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "bookings_confirmed_total",
			Help:      "Total holds converted into bookings",
		}),
		bookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "bookings_cancelled_total",
			Help:      "Total bookings cancelled",
		}),
		holdsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "holds_swept_total",
			Help:      "Expired holds removed by the background sweeper",
		}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "reservations",
			Name:      "resolve_latency_seconds",
			Help:      "Latency of availability resolution",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.holdsCreated,
		m.holdConflicts,
		m.bookingsConfirmed,
		m.bookingsCancelled,
		m.holdsSwept,
		m.resolveLatency,
	)
	return m
}

func (m *ReservationMetrics) ObserveHoldCreated() {
	if m == nil {
		return
	}
	m.holdsCreated.Inc()
}

// ObserveConflict records a SlotTaken outcome for the given operation
// ("reserve" or "confirm"). Conflicts are routine, not errors.
func (m *ReservationMetrics) ObserveConflict(operation string) {
	if m == nil {
		return
	}
	m.holdConflicts.WithLabelValues(operation).Inc()
}

func (m *ReservationMetrics) ObserveBookingConfirmed() {
	if m == nil {
		return
	}
	m.bookingsConfirmed.Inc()
}

func (m *ReservationMetrics) ObserveBookingCancelled() {
	if m == nil {
		return
	}
	m.bookingsCancelled.Inc()
}

func (m *ReservationMetrics) ObserveHoldsSwept(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.holdsSwept.Add(float64(count))
}

func (m *ReservationMetrics) ObserveResolveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.Observe(seconds)
}
