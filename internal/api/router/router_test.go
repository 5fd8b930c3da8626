package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipline/booking-platform/internal/catalog"
	"github.com/clipline/booking-platform/internal/clock"
	"github.com/clipline/booking-platform/internal/manychat"
	"github.com/clipline/booking-platform/internal/reservations"
	"github.com/clipline/booking-platform/internal/schedule"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	hours, err := schedule.NewHours("America/Denver", 9, 18, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewHours: %v", err)
	}
	clk := clock.NewFixed(time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC))

	services := catalog.NewInMemoryRepository()
	if _, err := services.Create(context.Background(), &catalog.CreateServiceRequest{
		Name:            "Haircut",
		DurationMinutes: 30,
		PriceCents:      3500,
	}); err != nil {
		t.Fatalf("seed service: %v", err)
	}

	repo := reservations.NewInMemoryRepository()
	resolver := reservations.NewResolver(repo, services, hours, clk, nil, nil)
	holds := reservations.NewHoldManager(repo, services, 8*time.Minute, clk, nil, nil)
	bookings := reservations.NewBookingFinalizer(repo, services, hours, clk, nil, nil)

	return New(&Config{
		CatalogHandler:      catalog.NewHandler(services, nil),
		ReservationsHandler: reservations.NewHandler(resolver, holds, bookings, nil),
		ManyChatHandler:     manychat.NewHandler(resolver, nil),
		BookingAPIKey:       "test-key",
		AdminJWTSecret:      "test-secret",
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/health", "/services"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d", path, rec.Code)
		}
	}
}

func TestBookingRoutesRequireAPIKey(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/availability?service_id=1&date=2025-06-02", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/availability?service_id=1&date=2025-06-02", nil)
	req.Header.Set("X-Booking-Key", "test-key")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/manychat/availability?service_id=1&date=2025-06-02", nil)
	req.Header.Set("X-Booking-Key", "test-key")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("manychat with key: status = %d", rec.Code)
	}
}

func TestAdminRoutesRequireJWT(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: status = %d", rec.Code)
	}
}

func TestAdminServiceCRUDThroughRouter(t *testing.T) {
	r := newTestRouter(t)
	token := adminToken(t)

	body := `{"name":"Beard Trim","duration_minutes":30,"price_cents":2000}`
	req := httptest.NewRequest(http.MethodPost, "/admin/services", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create service: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/services", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list services: status = %d", rec.Code)
	}
}
