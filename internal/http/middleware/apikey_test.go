package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyValid(t *testing.T) {
	mw := APIKey("secret-key")
	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	req.Header.Set(APIKeyHeader, "secret-key")
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v status=%d", called, rec.Code)
	}
}

func TestAPIKeyInvalid(t *testing.T) {
	mw := APIKey("secret-key")
	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMissingHeader(t *testing.T) {
	mw := APIKey("secret-key")
	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyUnconfigured(t *testing.T) {
	mw := APIKey("")
	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	req.Header.Set(APIKeyHeader, "anything")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when key unset, got %d", rec.Code)
	}
}
