package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/clipline/booking-platform/internal/schedule"
)

// Hold is a time-boxed reservation intent on a slot. It blocks competing
// reservations until it expires or is consumed by a booking; it carries no
// customer data.
type Hold struct {
	ID        uuid.UUID `json:"id"`
	ServiceID int64     `json:"service_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Live reports whether the hold still has reservation power at now. Expired
// holds are treated as absent everywhere, swept or not.
func (h *Hold) Live(now time.Time) bool {
	return h.ExpiresAt.After(now)
}

// Booking is a confirmed reservation produced by consuming a hold.
type Booking struct {
	ID            uuid.UUID `json:"id"`
	ServiceID     int64     `json:"service_id"`
	ServiceName   string    `json:"service_name,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Choice is a selectable availability option: a human label in business-local
// time plus an opaque value that round-trips the exact slot boundaries. The
// value is derived only from the boundaries, so the same slot always encodes
// identically and retries stay idempotent.
type Choice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Availability is the resolved free-slot view for one service and day.
type Availability struct {
	ServiceID int64           `json:"service_id"`
	Date      string          `json:"date"`
	Slots     []schedule.Slot `json:"slots"`
	Choices   []Choice        `json:"choices"`
}

// ReserveInput are the parameters for placing a hold on a slot.
type ReserveInput struct {
	ServiceID int64
	Start     time.Time
	End       time.Time
	SessionID string
}

// ConfirmInput are the parameters for converting a hold into a booking.
type ConfirmInput struct {
	HoldID        uuid.UUID
	CustomerName  string
	CustomerPhone string
	Notes         string
}

// BookingFilter narrows the admin booking list.
type BookingFilter struct {
	// Date is a business-local YYYY-MM-DD day; empty means any day.
	Date string
	// ServiceID filters to one service; zero means any service.
	ServiceID int64
}
