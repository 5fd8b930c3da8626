package catalog

import (
	"strings"
	"time"
)

// Service is a bookable offering with a fixed duration and price.
// Deactivating a service stops new reservations without touching bookings
// that already reference it.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Duration returns the service length as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// CreateServiceRequest represents the request body for creating a service
type CreateServiceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	Active          *bool  `json:"active,omitempty"`
}

// Validate validates the create service request
func (r *CreateServiceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if r.PriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// IsActive resolves the optional active flag, defaulting to true.
func (r *CreateServiceRequest) IsActive() bool {
	if r.Active == nil {
		return true
	}
	return *r.Active
}

// UpdateServiceRequest carries a partial update; nil fields are left as-is.
type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// Validate validates the update service request
func (r *UpdateServiceRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrNameRequired
	}
	if r.DurationMinutes != nil && *r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if r.PriceCents != nil && *r.PriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}
