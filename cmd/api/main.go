package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clipline/booking-platform/internal/api/router"
	"github.com/clipline/booking-platform/internal/catalog"
	"github.com/clipline/booking-platform/internal/clock"
	appconfig "github.com/clipline/booking-platform/internal/config"
	httpmiddleware "github.com/clipline/booking-platform/internal/http/middleware"
	"github.com/clipline/booking-platform/internal/manychat"
	"github.com/clipline/booking-platform/internal/observability/metrics"
	"github.com/clipline/booking-platform/internal/reservations"
	"github.com/clipline/booking-platform/internal/schedule"
	"github.com/clipline/booking-platform/pkg/logging"
)

func main() {
	// Load .env file, optional outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	hours, err := schedule.NewHours(cfg.Timezone, cfg.OpenHour, cfg.CloseHour, cfg.SlotGranularity)
	if err != nil {
		logger.Error("invalid business hours config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting falls back to in-process", "error", err)
		}
	} else {
		logger.Warn("REDIS_ADDR unset, rate limiting is per-instance only")
	}

	clk := clock.NewSystem()
	registry := prometheus.NewRegistry()
	reservationMetrics := metrics.NewReservationMetrics(registry)

	// Repositories and services
	catalogRepo := catalog.NewPostgresRepository(pool)
	reservationRepo := reservations.NewPostgresRepository(pool)

	resolver := reservations.NewResolver(reservationRepo, catalogRepo, hours, clk, reservationMetrics, logger)
	holds := reservations.NewHoldManager(reservationRepo, catalogRepo, cfg.HoldTTL, clk, reservationMetrics, logger)
	finalizer := reservations.NewBookingFinalizer(reservationRepo, catalogRepo, hours, clk, reservationMetrics, logger)

	// Background sweep of expired holds
	sweeper := reservations.NewSweeper(reservationRepo, clk, reservationMetrics, logger).
		WithInterval(cfg.HoldSweepInterval)
	go sweeper.Run(ctx)

	limiter := httpmiddleware.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, logger)
	defer limiter.Close()

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		CatalogHandler:      catalog.NewHandler(catalogRepo, logger),
		ReservationsHandler: reservations.NewHandler(resolver, holds, finalizer, logger),
		ManyChatHandler:     manychat.NewHandler(resolver, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimiter:         limiter,
		BookingAPIKey:       cfg.BookingAPIKey,
		AdminJWTSecret:      cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
