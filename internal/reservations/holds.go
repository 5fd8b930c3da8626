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
	"github.com/clipline/booking-platform/pkg/logging"
)

// HoldManager places and releases time-boxed holds. Reserve runs its overlap
// checks and the insert in one serializable transaction, so two competing
// requests for the same interval can never both succeed.
type HoldManager struct {
	repo     Repository
	services catalog.Repository
	clock    clock.Clock
	ttl      time.Duration
	metrics  *metrics.ReservationMetrics
	logger   *logging.Logger
}

// NewHoldManager creates a hold manager. ttl is how long a hold blocks the
// slot before it lapses.
func NewHoldManager(repo Repository, services catalog.Repository, ttl time.Duration, clk clock.Clock, m *metrics.ReservationMetrics, logger *logging.Logger) *HoldManager {
	if ttl <= 0 {
		panic("reservations: hold ttl must be positive")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HoldManager{
		repo:     repo,
		services: services,
		clock:    clk,
		ttl:      ttl,
		metrics:  m,
		logger:   logger,
	}
}

// TTL returns the configured hold lifetime.
func (m *HoldManager) TTL() time.Duration {
	return m.ttl
}

// Reserve places a hold on the interval, failing with ErrSlotTaken when a
// booking or another live hold already covers any part of it.
func (m *HoldManager) Reserve(ctx context.Context, input ReserveInput) (*Hold, error) {
	ctx, span := otel.Tracer("reservations").Start(ctx, "holds.reserve")
	defer span.End()
	span.SetAttributes(attribute.Int64("service_id", input.ServiceID))

	if input.SessionID == "" {
		return nil, ErrSessionRequired
	}
	if !input.Start.Before(input.End) {
		return nil, ErrInvalidInterval
	}

	if _, err := m.services.GetActive(ctx, input.ServiceID); err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, ErrInvalidService
		}
		return nil, fmt.Errorf("reservations: load service: %w", err)
	}

	now := m.clock.Now()
	hold := &Hold{
		ID:        uuid.New(),
		ServiceID: input.ServiceID,
		Start:     input.Start.UTC(),
		End:       input.End.UTC(),
		SessionID: input.SessionID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	err := m.repo.InTx(ctx, func(ctx context.Context) error {
		booked, err := m.repo.CountBookingsOverlapping(ctx, hold.ServiceID, hold.Start, hold.End)
		if err != nil {
			return err
		}
		if booked > 0 {
			return ErrSlotTaken
		}
		held, err := m.repo.CountLiveHoldsOverlapping(ctx, hold.ServiceID, hold.Start, hold.End, now)
		if err != nil {
			return err
		}
		if held > 0 {
			return ErrSlotTaken
		}
		return m.repo.InsertHold(ctx, hold)
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			m.metrics.ObserveConflict("reserve")
			m.logger.Info("hold rejected, slot contested",
				"service_id", hold.ServiceID,
				"start", hold.Start,
			)
		}
		return nil, err
	}

	m.metrics.ObserveHoldCreated()
	m.logger.Info("hold created",
		"hold_id", hold.ID,
		"service_id", hold.ServiceID,
		"start", hold.Start,
		"expires_at", hold.ExpiresAt,
	)
	return hold, nil
}

// Release removes a hold, freeing its slot immediately. Releasing a hold
// that no longer exists is not an error.
func (m *HoldManager) Release(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("reservations").Start(ctx, "holds.release")
	defer span.End()

	deleted, err := m.repo.DeleteHold(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		m.logger.Info("hold released", "hold_id", id)
	}
	return nil
}
