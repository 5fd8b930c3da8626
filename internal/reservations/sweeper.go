package reservations

import (
	"context"
	"time"

	"github.com/clipline/booking-platform/internal/clock"
	"github.com/clipline/booking-platform/internal/observability/metrics"
	"github.com/clipline/booking-platform/pkg/logging"
)

// Sweeper periodically deletes expired holds. Correctness never depends on
// it: readers and reservation checks already ignore expired holds. Sweeping
// only keeps the holds table from accumulating dead rows.
type Sweeper struct {
	repo     Repository
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *metrics.ReservationMetrics
	interval time.Duration
}

func NewSweeper(repo Repository, clk clock.Clock, m *metrics.ReservationMetrics, logger *logging.Logger) *Sweeper {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		repo:     repo,
		clock:    clk,
		logger:   logger,
		metrics:  m,
		interval: 5 * time.Minute,
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	swept, err := s.repo.DeleteExpiredHolds(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("hold sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.metrics.ObserveHoldsSwept(swept)
		s.logger.Info("expired holds swept", "count", swept)
	}
}
