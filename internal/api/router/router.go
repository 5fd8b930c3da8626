package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clipline/booking-platform/internal/catalog"
	httpmiddleware "github.com/clipline/booking-platform/internal/http/middleware"
	"github.com/clipline/booking-platform/internal/manychat"
	"github.com/clipline/booking-platform/internal/reservations"
	"github.com/clipline/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	CatalogHandler      *catalog.Handler
	ReservationsHandler *reservations.Handler
	ManyChatHandler     *manychat.Handler
	MetricsHandler      http.Handler
	RateLimiter         *httpmiddleware.RateLimiter

	BookingAPIKey      string
	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.CatalogHandler != nil {
			public.Get("/services", cfg.CatalogHandler.ListActive)
		}
	})

	// Booking surface, shared-key gated and rate limited
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.APIKey(cfg.BookingAPIKey))
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Middleware)
		}

		if cfg.ReservationsHandler != nil {
			api.Get("/availability", cfg.ReservationsHandler.Availability)
			api.Post("/holds", cfg.ReservationsHandler.CreateHold)
			api.Delete("/holds/{holdID}", cfg.ReservationsHandler.ReleaseHold)
			api.Post("/bookings", cfg.ReservationsHandler.CreateBooking)
			api.Post("/bookings/{bookingID}/cancel", cfg.ReservationsHandler.CancelBooking)
		}
		if cfg.ManyChatHandler != nil {
			api.Get("/manychat/availability", cfg.ManyChatHandler.Availability)
		}
	})

	// Admin endpoints
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))

		if cfg.CatalogHandler != nil {
			admin.Get("/services", cfg.CatalogHandler.List)
			admin.Post("/services", cfg.CatalogHandler.Create)
			admin.Put("/services/{serviceID}", cfg.CatalogHandler.Update)
			admin.Delete("/services/{serviceID}", cfg.CatalogHandler.Delete)
		}
		if cfg.ReservationsHandler != nil {
			admin.Get("/bookings", cfg.ReservationsHandler.ListBookings)
			admin.Post("/bookings/{bookingID}/cancel", cfg.ReservationsHandler.CancelBooking)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
