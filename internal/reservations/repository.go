package reservations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipline/booking-platform/internal/schedule"
)

// Repository defines the storage interface for holds and bookings. Overlap
// and expiry checks run against committed state; the reservation invariant is
// enforced by running the check-then-insert sequences inside InTx.
type Repository interface {
	// InTx runs fn inside a single serializable transaction. A serialization
	// failure is retried once; if the retry also fails the error maps to
	// ErrSlotTaken, since losing the serialization race means a competing
	// reservation committed first.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	CountBookingsOverlapping(ctx context.Context, serviceID int64, start, end time.Time) (int, error)
	CountLiveHoldsOverlapping(ctx context.Context, serviceID int64, start, end, now time.Time) (int, error)

	InsertHold(ctx context.Context, hold *Hold) error
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	DeleteHold(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpiredHolds(ctx context.Context, before time.Time) (int64, error)

	InsertBooking(ctx context.Context, booking *Booking) error
	DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error)

	// BookingsInWindow returns bookings whose interval intersects [from, to).
	BookingsInWindow(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error)
	// LiveHoldsInWindow returns unexpired holds intersecting [from, to).
	LiveHoldsInWindow(ctx context.Context, serviceID int64, from, to, now time.Time) ([]*Hold, error)
	// ListBookings returns bookings intersecting [from, to) across services,
	// or one service when serviceID is non-zero, ordered by start.
	ListBookings(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error)
}

// InMemoryRepository keeps holds and bookings in process memory. It exists
// for tests and single-process development only: with more than one instance
// it cannot uphold the no-double-booking invariant, which requires the
// database's serializable transactions.
type InMemoryRepository struct {
	mu       sync.Mutex
	holds    map[uuid.UUID]*Hold
	bookings map[uuid.UUID]*Booking
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		holds:    make(map[uuid.UUID]*Hold),
		bookings: make(map[uuid.UUID]*Booking),
	}
}

// InTx runs fn directly; the repository mutex already serializes access
// within this process.
func (r *InMemoryRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *InMemoryRepository) CountBookingsOverlapping(ctx context.Context, serviceID int64, start, end time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && schedule.Overlaps(b.Start, b.End, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) CountLiveHoldsOverlapping(ctx context.Context, serviceID int64, start, end, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, h := range r.holds {
		if h.ServiceID == serviceID && h.Live(now) && schedule.Overlaps(h.Start, h.End, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) InsertHold(ctx context.Context, hold *Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *hold
	r.holds[hold.ID] = &copied
	return nil
}

func (r *InMemoryRepository) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hold, ok := r.holds[id]
	if !ok {
		return nil, ErrHoldNotFound
	}
	copied := *hold
	return &copied, nil
}

func (r *InMemoryRepository) DeleteHold(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.holds[id]; !ok {
		return false, nil
	}
	delete(r.holds, id)
	return true, nil
}

func (r *InMemoryRepository) DeleteExpiredHolds(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var swept int64
	for id, h := range r.holds {
		if !h.ExpiresAt.After(before) {
			delete(r.holds, id)
			swept++
		}
	}
	return swept, nil
}

func (r *InMemoryRepository) InsertBooking(ctx context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *InMemoryRepository) DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return false, nil
	}
	delete(r.bookings, id)
	return true, nil
}

func (r *InMemoryRepository) BookingsInWindow(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && schedule.Overlaps(b.Start, b.End, from, to) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *InMemoryRepository) LiveHoldsInWindow(ctx context.Context, serviceID int64, from, to, now time.Time) ([]*Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Hold
	for _, h := range r.holds {
		if h.ServiceID == serviceID && h.Live(now) && schedule.Overlaps(h.Start, h.End, from, to) {
			copied := *h
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *InMemoryRepository) ListBookings(ctx context.Context, serviceID int64, from, to time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if serviceID != 0 && b.ServiceID != serviceID {
			continue
		}
		if !from.IsZero() && !schedule.Overlaps(b.Start, b.End, from, to) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	sortBookings(out)
	return out, nil
}

func sortBookings(bookings []*Booking) {
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].Start.Before(bookings[j].Start) })
}
