package reservations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestServer(t *testing.T) (*fixture, *httptest.Server) {
	t.Helper()

	f := newFixture(t)
	h := NewHandler(f.resolver, f.holds, f.bookings, nil)

	r := chi.NewRouter()
	r.Get("/availability", h.Availability)
	r.Post("/holds", h.CreateHold)
	r.Delete("/holds/{holdID}", h.ReleaseHold)
	r.Post("/bookings", h.CreateBooking)
	r.Post("/bookings/{bookingID}/cancel", h.CancelBooking)
	r.Get("/admin/bookings", h.ListBookings)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var payload map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func errCode(t *testing.T, payload map[string]json.RawMessage) string {
	t.Helper()
	var code string
	if raw, ok := payload["error"]; ok {
		_ = json.Unmarshal(raw, &code)
	}
	return code
}

func TestAvailabilityEndpoint(t *testing.T) {
	f, srv := newTestServer(t)

	resp, payload := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/availability?service_id=%d&date=2025-06-02", srv.URL, f.svc.ID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var choices []Choice
	if err := json.Unmarshal(payload["choices"], &choices); err != nil {
		t.Fatalf("decode choices: %v", err)
	}
	if len(choices) != 18 {
		t.Fatalf("expected 18 choices, got %d", len(choices))
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/availability?service_id=abc&date=2025-06-02", "")
	if resp.StatusCode != http.StatusBadRequest || errCode(t, payload) != "invalid_input" {
		t.Fatalf("bad service_id: status = %d, error = %q", resp.StatusCode, errCode(t, payload))
	}

	resp, payload = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/availability?service_id=%d&date=junk", srv.URL, f.svc.ID), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad date: status = %d", resp.StatusCode)
	}
}

func TestHoldEndpoints(t *testing.T) {
	f, srv := newTestServer(t)
	start, end := f.slotAt(10, 0)

	body := fmt.Sprintf(`{"service_id":%d,"start":%q,"end":%q,"session_id":"sess-1"}`,
		f.svc.ID, start.Format(time.RFC3339), end.Format(time.RFC3339))

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/holds", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create hold: status = %d", resp.StatusCode)
	}
	var holdID uuid.UUID
	if err := json.Unmarshal(payload["hold_id"], &holdID); err != nil {
		t.Fatalf("decode hold_id: %v", err)
	}
	var expires time.Time
	if err := json.Unmarshal(payload["expires_at"], &expires); err != nil {
		t.Fatalf("decode expires_at: %v", err)
	}
	if want := f.clock.Now().Add(8 * time.Minute); !expires.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", expires, want)
	}

	// Same interval again conflicts.
	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/holds", body)
	if resp.StatusCode != http.StatusConflict || errCode(t, payload) != "slot_taken" {
		t.Fatalf("conflict: status = %d, error = %q", resp.StatusCode, errCode(t, payload))
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/holds/"+holdID.String(), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("release: status = %d", resp.StatusCode)
	}

	// Released slot is reservable again.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/holds", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("re-reserve after release: status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/holds/not-a-uuid", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad hold id: status = %d", resp.StatusCode)
	}
}

func TestHoldFromSlotValue(t *testing.T) {
	f, srv := newTestServer(t)

	resp, payload := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/availability?service_id=%d&date=2025-06-02", srv.URL, f.svc.ID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability: status = %d", resp.StatusCode)
	}
	var choices []Choice
	if err := json.Unmarshal(payload["choices"], &choices); err != nil {
		t.Fatalf("decode choices: %v", err)
	}

	body := fmt.Sprintf(`{"service_id":%d,"slot":%q,"session_id":"sess-1"}`, f.svc.ID, choices[0].Value)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/holds", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create hold from slot value: status = %d", resp.StatusCode)
	}
}

func TestBookingEndpoints(t *testing.T) {
	f, srv := newTestServer(t)
	hold := f.reserve(t, 10, 0)

	body := fmt.Sprintf(`{"hold_id":%q,"customer_name":"Dana","customer_phone":"+13035550100"}`, hold.ID)
	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/bookings", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("confirm: status = %d", resp.StatusCode)
	}
	var bookingID uuid.UUID
	if err := json.Unmarshal(payload["id"], &bookingID); err != nil {
		t.Fatalf("decode booking id: %v", err)
	}
	var name string
	if err := json.Unmarshal(payload["service_name"], &name); err != nil || name != "Haircut" {
		t.Fatalf("service_name = %q, err = %v", name, err)
	}

	// The consumed hold is gone.
	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/bookings", body)
	if resp.StatusCode != http.StatusNotFound || errCode(t, payload) != "not_found" {
		t.Fatalf("re-confirm: status = %d, error = %q", resp.StatusCode, errCode(t, payload))
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/admin/bookings?date=2025-06-02", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list bookings: status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/bookings/"+bookingID.String()+"/cancel", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status = %d", resp.StatusCode)
	}
	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/bookings/"+bookingID.String()+"/cancel", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second cancel: status = %d", resp.StatusCode)
	}
}

func TestBookingExpiredHoldEndpoint(t *testing.T) {
	f, srv := newTestServer(t)
	hold := f.reserve(t, 10, 0)
	f.clock.Advance(9 * time.Minute)

	body := fmt.Sprintf(`{"hold_id":%q,"customer_name":"Dana","customer_phone":"+13035550100"}`, hold.ID)
	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/bookings", body)
	if resp.StatusCode != http.StatusConflict || errCode(t, payload) != "hold_expired" {
		t.Fatalf("expired confirm: status = %d, error = %q", resp.StatusCode, errCode(t, payload))
	}
}

func TestBookingValidationEndpoint(t *testing.T) {
	f, srv := newTestServer(t)
	hold := f.reserve(t, 10, 0)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/bookings", `{"customer_name":"Dana","customer_phone":"+1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing hold_id: status = %d", resp.StatusCode)
	}

	body := fmt.Sprintf(`{"hold_id":%q,"customer_name":"","customer_phone":""}`, hold.ID)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/bookings", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing customer: status = %d", resp.StatusCode)
	}

	// Validation failures never consume the hold.
	if _, err := f.repo.GetHold(context.Background(), hold.ID); err != nil {
		t.Fatalf("hold should survive: %v", err)
	}
}
