package manychat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/clipline/booking-platform/internal/reservations"
	"github.com/clipline/booking-platform/pkg/logging"
)

// Handler serves availability in ManyChat dynamic block format. Failures are
// also rendered as dynamic blocks, so the chat flow always has something to
// display.
type Handler struct {
	resolver *reservations.Resolver
	logger   *logging.Logger
}

// NewHandler creates a new manychat handler
func NewHandler(resolver *reservations.Resolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// Availability handles GET /manychat/availability?service_id=N&date=YYYY-MM-DD
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		writeBlock(w, http.StatusBadRequest, textPayload("Service not found or inactive."))
		return
	}

	avail, err := h.resolver.Resolve(r.Context(), serviceID, r.URL.Query().Get("date"))
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrInvalidService):
			writeBlock(w, http.StatusBadRequest, textPayload("Service not found or inactive."))
		case errors.Is(err, reservations.ErrInvalidDate):
			writeBlock(w, http.StatusBadRequest, textPayload("Please send the date as YYYY-MM-DD."))
		default:
			h.logger.Error("manychat availability failed", "error", err)
			writeBlock(w, http.StatusInternalServerError,
				textPayload("Sorry, something went wrong while fetching availability."))
		}
		return
	}

	writeBlock(w, http.StatusOK, FromAvailability(avail))
}

func writeBlock(w http.ResponseWriter, status int, payload Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
