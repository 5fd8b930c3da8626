package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clipline/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for the service catalog
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListActive handles GET /services requests
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// List handles GET /admin/services requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// Create handles POST /admin/services requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	svc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("service created", "id", svc.ID, "name", svc.Name)
	writeJSON(w, http.StatusCreated, svc)
}

// Update handles PUT /admin/services/{serviceID} requests
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := serviceIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	svc, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("service updated", "id", svc.ID)
	writeJSON(w, http.StatusOK, svc)
}

// Delete handles DELETE /admin/services/{serviceID} requests
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := serviceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("service deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "invalid_input")
	default:
		h.logger.Error("catalog request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func serviceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input")
		return 0, false
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
