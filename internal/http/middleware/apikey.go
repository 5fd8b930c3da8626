package middleware

import "net/http"

// APIKeyHeader carries the shared key for the booking endpoints.
const APIKeyHeader = "X-Booking-Key"

// APIKey enforces the shared-key check on the public booking surface. An
// empty configured key disables the routes rather than leaving them open.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				http.Error(w, "api key auth disabled", http.StatusUnauthorized)
				return
			}
			if r.Header.Get(APIKeyHeader) != key {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
