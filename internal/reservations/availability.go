package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clipline/booking-platform/internal/catalog"
	"github.com/clipline/booking-platform/internal/clock"
	"github.com/clipline/booking-platform/internal/observability/metrics"
	"github.com/clipline/booking-platform/internal/schedule"
	"github.com/clipline/booking-platform/pkg/logging"
)

// Resolver computes which slots on a day are still free for a service.
// Both confirmed bookings and live holds make a slot unavailable; expired
// holds are ignored whether or not the sweeper has removed them yet.
type Resolver struct {
	repo     Repository
	services catalog.Repository
	hours    schedule.Hours
	clock    clock.Clock
	metrics  *metrics.ReservationMetrics
	logger   *logging.Logger
}

// NewResolver creates an availability resolver.
func NewResolver(repo Repository, services catalog.Repository, hours schedule.Hours, clk clock.Clock, m *metrics.ReservationMetrics, logger *logging.Logger) *Resolver {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		repo:     repo,
		services: services,
		hours:    hours,
		clock:    clk,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve returns the free slots for the service on the given business-local
// day, ordered by start time, together with presentation choices.
func (r *Resolver) Resolve(ctx context.Context, serviceID int64, date string) (*Availability, error) {
	ctx, span := otel.Tracer("reservations").Start(ctx, "resolver.resolve")
	defer span.End()
	span.SetAttributes(attribute.Int64("service_id", serviceID), attribute.String("date", date))

	started := r.clock.Now()

	svc, err := r.services.GetActive(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, ErrInvalidService
		}
		return nil, fmt.Errorf("reservations: load service: %w", err)
	}

	day, err := r.hours.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	avail := &Availability{
		ServiceID: serviceID,
		Date:      date,
		Slots:     []schedule.Slot{},
		Choices:   []Choice{},
	}

	candidates := r.hours.Slots(day, svc.Duration())
	if len(candidates) == 0 {
		return avail, nil
	}

	now := r.clock.Now()
	from, to := r.hours.DayWindow(day)

	bookings, err := r.repo.BookingsInWindow(ctx, serviceID, from, to)
	if err != nil {
		return nil, err
	}
	holds, err := r.repo.LiveHoldsInWindow(ctx, serviceID, from, to, now)
	if err != nil {
		return nil, err
	}

	for _, slot := range candidates {
		if slotBusy(slot, bookings, holds) {
			continue
		}
		avail.Slots = append(avail.Slots, slot)
		avail.Choices = append(avail.Choices, Choice{
			Title: r.hours.FormatLocal(slot.Start),
			Value: FormatSlotValue(slot.Start, slot.End),
		})
	}

	r.metrics.ObserveResolveLatency(r.clock.Now().Sub(started).Seconds())
	r.logger.Debug("availability resolved",
		"service_id", serviceID,
		"date", date,
		"free_slots", len(avail.Slots),
	)
	return avail, nil
}

func slotBusy(slot schedule.Slot, bookings []*Booking, holds []*Hold) bool {
	for _, b := range bookings {
		if schedule.Overlaps(slot.Start, slot.End, b.Start, b.End) {
			return true
		}
	}
	for _, h := range holds {
		if schedule.Overlaps(slot.Start, slot.End, h.Start, h.End) {
			return true
		}
	}
	return false
}

// FormatSlotValue encodes slot boundaries as "start|end" in RFC 3339 UTC.
// The encoding depends only on the boundaries, so the same slot always
// produces the same value.
func FormatSlotValue(start, end time.Time) string {
	return start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
}

// ParseSlotValue decodes a value produced by FormatSlotValue.
func ParseSlotValue(value string) (start, end time.Time, err error) {
	raw, rest, ok := strings.Cut(value, "|")
	if !ok {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	start, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	end, err = time.Parse(time.RFC3339, rest)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	return start.UTC(), end.UTC(), nil
}
