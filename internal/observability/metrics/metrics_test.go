package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReservationMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReservationMetrics(reg)

	m.ObserveHoldCreated()
	m.ObserveHoldCreated()
	m.ObserveConflict("reserve")
	m.ObserveBookingConfirmed()
	m.ObserveHoldsSwept(3)
	m.ObserveHoldsSwept(0)

	if got := testutil.ToFloat64(m.holdsCreated); got != 2 {
		t.Fatalf("holds created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.holdConflicts.WithLabelValues("reserve")); got != 1 {
		t.Fatalf("reserve conflicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.holdsSwept); got != 3 {
		t.Fatalf("holds swept = %v, want 3", got)
	}

	expected := strings.NewReader(`
# HELP booking_reservations_bookings_confirmed_total Total holds converted into bookings
# TYPE booking_reservations_bookings_confirmed_total counter
booking_reservations_bookings_confirmed_total 1
`)
	if err := testutil.GatherAndCompare(reg, expected, "booking_reservations_bookings_confirmed_total"); err != nil {
		t.Fatalf("unexpected confirmed counter output: %v", err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *ReservationMetrics
	m.ObserveHoldCreated()
	m.ObserveConflict("confirm")
	m.ObserveBookingConfirmed()
	m.ObserveBookingCancelled()
	m.ObserveHoldsSwept(5)
	m.ObserveResolveLatency(0.1)
}
