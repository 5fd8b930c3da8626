package reservations

import "errors"

var (
	// ErrInvalidService is returned when the referenced service is missing or inactive
	ErrInvalidService = errors.New("service not found or inactive")

	// ErrInvalidInterval is returned when start does not precede end
	ErrInvalidInterval = errors.New("start must be before end")

	// ErrInvalidDate is returned when a date is not a valid YYYY-MM-DD day
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrSlotTaken is returned when the interval conflicts with a booking or a
	// live hold. A routine outcome of concurrent use, not a fault.
	ErrSlotTaken = errors.New("slot taken")

	// ErrHoldNotFound is returned when no hold exists for the given id
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired is returned when the hold lapsed before confirmation
	ErrHoldExpired = errors.New("hold expired")

	// ErrBookingNotFound is returned when no booking exists for the given id
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSessionRequired is returned when a reserve request has no session id
	ErrSessionRequired = errors.New("session id is required")

	// ErrCustomerRequired is returned when confirm lacks customer name or phone
	ErrCustomerRequired = errors.New("customer name and phone are required")
)
