package reservations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipline/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for availability, holds, and bookings
type Handler struct {
	resolver *Resolver
	holds    *HoldManager
	bookings *BookingFinalizer
	logger   *logging.Logger
}

// NewHandler creates a new reservations handler
func NewHandler(resolver *Resolver, holds *HoldManager, bookings *BookingFinalizer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		resolver: resolver,
		holds:    holds,
		bookings: bookings,
		logger:   logger,
	}
}

// Availability handles GET /availability?service_id=N&date=YYYY-MM-DD
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	avail, err := h.resolver.Resolve(r.Context(), serviceID, r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

type createHoldRequest struct {
	ServiceID int64  `json:"service_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	// Slot is the encoded choice value from availability, an alternative to
	// explicit start/end.
	Slot      string `json:"slot"`
	SessionID string `json:"session_id"`
}

type holdResponse struct {
	HoldID    uuid.UUID `json:"hold_id"`
	ServiceID int64     `json:"service_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateHold handles POST /holds requests
func (h *Handler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req createHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	input := ReserveInput{ServiceID: req.ServiceID, SessionID: req.SessionID}
	var err error
	if req.Slot != "" {
		input.Start, input.End, err = ParseSlotValue(req.Slot)
	} else {
		input.Start, input.End, err = parseInterval(req.Start, req.End)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	hold, err := h.holds.Reserve(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, holdResponse{
		HoldID:    hold.ID,
		ServiceID: hold.ServiceID,
		Start:     hold.Start,
		End:       hold.End,
		ExpiresAt: hold.ExpiresAt,
	})
}

// ReleaseHold handles DELETE /holds/{holdID} requests
func (h *Handler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "holdID")
	if !ok {
		return
	}

	if err := h.holds.Release(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type confirmRequest struct {
	HoldID        uuid.UUID `json:"hold_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Notes         string    `json:"notes"`
}

// CreateBooking handles POST /bookings requests
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}
	if req.HoldID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	booking, err := h.bookings.Confirm(r.Context(), ConfirmInput{
		HoldID:        req.HoldID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// CancelBooking handles POST /bookings/{bookingID}/cancel requests
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "bookingID")
	if !ok {
		return
	}

	if err := h.bookings.Cancel(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListBookings handles GET /admin/bookings?date=YYYY-MM-DD&service_id=N
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter := BookingFilter{Date: r.URL.Query().Get("date")}
	if raw := r.URL.Query().Get("service_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_input")
			return
		}
		filter.ServiceID = id
	}

	bookings, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken")
	case errors.Is(err, ErrHoldExpired):
		writeError(w, http.StatusConflict, "hold_expired")
	case errors.Is(err, ErrHoldNotFound), errors.Is(err, ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, ErrInvalidService),
		errors.Is(err, ErrInvalidInterval),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrSessionRequired),
		errors.Is(err, ErrCustomerRequired):
		writeError(w, http.StatusBadRequest, "invalid_input")
	default:
		h.logger.Error("reservation request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func parseInterval(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s.UTC(), e.UTC(), nil
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
