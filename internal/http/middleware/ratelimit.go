package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipline/booking-platform/pkg/logging"
)

// RateLimiter limits requests per client IP. With a Redis client the limit is
// a fixed one-minute window shared across instances; without one it degrades
// to a per-process token bucket, which under-counts behind a load balancer.
type RateLimiter struct {
	rdb       *redis.Client
	logger    *logging.Logger
	perMin    int
	fallback  *tokenBuckets
	closeOnce sync.Once
}

// NewRateLimiter creates a limiter allowing perMin requests per minute per
// IP. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, perMin int, logger *logging.Logger) *RateLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{
		rdb:      rdb,
		logger:   logger,
		perMin:   perMin,
		fallback: newTokenBuckets(float64(perMin)/60.0, perMin),
	}
}

// Close stops the fallback limiter's eviction goroutine. Safe to call more
// than once; the limiter itself keeps working after Close.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.fallback.stop) })
}

// Allow reports whether the request from ip fits the limit. Redis outages
// fail open: throttling is protective, not load-bearing.
func (rl *RateLimiter) Allow(ctx context.Context, ip string) bool {
	if rl.rdb == nil {
		return rl.fallback.allow(ip)
	}

	window := time.Now().Unix() / 60
	key := fmt.Sprintf("ratelimit:%s:%d", ip, window)

	pipe := rl.rdb.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("rate limit check failed, allowing request", "error", err)
		return true
	}
	return count.Val() <= int64(rl.perMin)
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Prefer X-Real-Ip set by chi's RealIP middleware.
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			ip = xri
		}
		if !rl.Allow(r.Context(), ip) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenBuckets is the in-process fallback: a token bucket per IP.
type tokenBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	stop    chan struct{}
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

func newTokenBuckets(rate float64, burst int) *tokenBuckets {
	tb := &tokenBuckets{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		stop:    make(chan struct{}),
	}
	// Periodically evict stale entries to prevent memory growth.
	go tb.cleanup()
	return tb
}

func (tb *tokenBuckets) allow(ip string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	b, ok := tb.buckets[ip]
	if !ok {
		b = &bucket{tokens: float64(tb.burst), lastTime: now}
		tb.buckets[ip] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens += elapsed * tb.rate
	if b.tokens > float64(tb.burst) {
		b.tokens = float64(tb.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (tb *tokenBuckets) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, b := range tb.buckets {
				if b.lastTime.Before(cutoff) {
					delete(tb.buckets, ip)
				}
			}
			tb.mu.Unlock()
		}
	}
}
