package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clipline/booking-platform/internal/catalog"
	"github.com/clipline/booking-platform/internal/clock"
	"github.com/clipline/booking-platform/internal/observability/metrics"
	"github.com/clipline/booking-platform/internal/schedule"
	"github.com/clipline/booking-platform/pkg/logging"
)

// BookingFinalizer converts holds into bookings and handles cancellation.
// Confirm consumes its hold on every path: success books the slot, while an
// expired or beaten hold is deleted in the same transaction before the
// failure is reported, so a dead hold never lingers to block the slot.
type BookingFinalizer struct {
	repo     Repository
	services catalog.Repository
	hours    schedule.Hours
	clock    clock.Clock
	metrics  *metrics.ReservationMetrics
	logger   *logging.Logger
}

// NewBookingFinalizer creates a booking finalizer.
func NewBookingFinalizer(repo Repository, services catalog.Repository, hours schedule.Hours, clk clock.Clock, m *metrics.ReservationMetrics, logger *logging.Logger) *BookingFinalizer {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingFinalizer{
		repo:     repo,
		services: services,
		hours:    hours,
		clock:    clk,
		metrics:  m,
		logger:   logger,
	}
}

// Confirm turns the hold into a booking. The hold is deleted whether the
// outcome is a booking, ErrHoldExpired, or ErrSlotTaken; only an unknown
// hold or a storage failure leaves state untouched.
func (f *BookingFinalizer) Confirm(ctx context.Context, input ConfirmInput) (*Booking, error) {
	ctx, span := otel.Tracer("reservations").Start(ctx, "bookings.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("hold_id", input.HoldID.String()))

	if input.CustomerName == "" || input.CustomerPhone == "" {
		return nil, ErrCustomerRequired
	}

	now := f.clock.Now()

	var booking *Booking
	// outcome carries a domain failure that must still commit, because the
	// dead hold's deletion happens in the same transaction.
	var outcome error

	err := f.repo.InTx(ctx, func(ctx context.Context) error {
		// InTx may run this closure twice after a serialization failure;
		// state from an aborted attempt must not leak into the retry.
		booking, outcome = nil, nil

		hold, err := f.repo.GetHold(ctx, input.HoldID)
		if err != nil {
			return err
		}

		if !hold.Live(now) {
			if _, err := f.repo.DeleteHold(ctx, hold.ID); err != nil {
				return err
			}
			outcome = ErrHoldExpired
			return nil
		}

		booked, err := f.repo.CountBookingsOverlapping(ctx, hold.ServiceID, hold.Start, hold.End)
		if err != nil {
			return err
		}
		if booked > 0 {
			if _, err := f.repo.DeleteHold(ctx, hold.ID); err != nil {
				return err
			}
			outcome = ErrSlotTaken
			return nil
		}

		if _, err := f.repo.DeleteHold(ctx, hold.ID); err != nil {
			return err
		}

		booking = &Booking{
			ID:            uuid.New(),
			ServiceID:     hold.ServiceID,
			Start:         hold.Start,
			End:           hold.End,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			Notes:         input.Notes,
			CreatedAt:     now,
		}
		return f.repo.InsertBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		if errors.Is(outcome, ErrSlotTaken) {
			f.metrics.ObserveConflict("confirm")
		}
		f.logger.Info("confirmation failed, hold consumed",
			"hold_id", input.HoldID,
			"reason", outcome.Error(),
		)
		return nil, outcome
	}

	// Bookings keep referencing deactivated services, so the lookup ignores
	// the active flag. The name is presentation only.
	if svc, err := f.services.Get(ctx, booking.ServiceID); err == nil {
		booking.ServiceName = svc.Name
	}

	f.metrics.ObserveBookingConfirmed()
	f.logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"service_id", booking.ServiceID,
		"start", booking.Start,
	)
	return booking, nil
}

// Cancel deletes the booking, freeing its slot immediately.
func (f *BookingFinalizer) Cancel(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("reservations").Start(ctx, "bookings.cancel")
	defer span.End()

	deleted, err := f.repo.DeleteBooking(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBookingNotFound
	}

	f.metrics.ObserveBookingCancelled()
	f.logger.Info("booking cancelled", "booking_id", id)
	return nil
}

// List returns bookings matching the filter, ordered by start time.
func (f *BookingFinalizer) List(ctx context.Context, filter BookingFilter) ([]*Booking, error) {
	var from, to time.Time
	if filter.Date != "" {
		day, err := f.hours.ParseDate(filter.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		from, to = f.hours.DayWindow(day)
	}

	bookings, err := f.repo.ListBookings(ctx, filter.ServiceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reservations: list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*Booking{}
	}
	return bookings, nil
}
