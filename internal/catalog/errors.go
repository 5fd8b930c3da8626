package catalog

import "errors"

var (
	// ErrServiceNotFound is returned when a service is missing or inactive
	ErrServiceNotFound = errors.New("service not found or inactive")

	// ErrNameRequired is returned when the service name is empty
	ErrNameRequired = errors.New("service name is required")

	// ErrInvalidDuration is returned when the duration is not positive
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	// ErrInvalidPrice is returned when the price is negative
	ErrInvalidPrice = errors.New("price must not be negative")
)
