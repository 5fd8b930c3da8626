package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// BookingAPIKey gates the public reservation endpoints (X-Booking-Key).
	BookingAPIKey string
	// AdminJWTSecret signs HMAC admin tokens. Empty disables admin routes.
	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Business-hours rules for slot generation.
	Timezone        string
	OpenHour        int
	CloseHour       int
	SlotGranularity time.Duration

	// Reservation behaviour.
	HoldTTL            time.Duration
	HoldSweepInterval  time.Duration
	RateLimitPerMinute int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BookingAPIKey:      getEnv("BOOKING_API_KEY", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		Timezone:        getEnv("BUSINESS_TIMEZONE", "America/Denver"),
		OpenHour:        getEnvAsInt("BUSINESS_OPEN_HOUR", 9),
		CloseHour:       getEnvAsInt("BUSINESS_CLOSE_HOUR", 18),
		SlotGranularity: getEnvAsDuration("SLOT_GRANULARITY", 30*time.Minute),

		HoldTTL:            getEnvAsDuration("HOLD_TTL", 8*time.Minute),
		HoldSweepInterval:  getEnvAsDuration("HOLD_SWEEP_INTERVAL", 5*time.Minute),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
