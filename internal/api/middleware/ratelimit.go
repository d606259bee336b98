package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"credit-approval/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiterMiddleware enforces a per-IP request budget. With a Redis client
// the budget is a fixed window shared by every replica; without one, or when
// Redis is unreachable, an in-process token bucket is used.
type RateLimiterMiddleware struct {
	redisClient *redis.Client
	limiters    sync.Map
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RateLimiterMiddleware {
	logger = logger.With("component", "RateLimiter")

	window := cfg.Window
	if window <= 0 {
		window = time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	rl := &RateLimiterMiddleware{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      window,
		stop:        make(chan struct{}),
	}

	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case redisClient == nil:
		logger.Info("Rate limiter using in-process token buckets", "rps", cfg.RPS, "burst", cfg.Burst)
	default:
		logger.Info("Rate limiter using Redis fixed window", "limit", rl.windowLimit(), "window", window)
	}

	if cfg.Enabled {
		go rl.cleanupLimiters(10 * time.Minute)
	}

	return rl
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled
}

// Stop ends the background cleanup of idle in-process limiters.
func (rl *RateLimiterMiddleware) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) windowLimit() int64 {
	return max(1, int64(math.Ceil(rl.cfg.RPS*rl.window.Seconds())))
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				limiter := value.(*rate.Limiter)
				if limiter.Tokens() >= float64(limiter.Burst()) {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

// extractIP keys the limiter on the connection address only. Proxy headers
// are resolved into RemoteAddr by middleware.RealIP before this runs.
func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}

	if parsedIP := net.ParseIP(r.RemoteAddr); parsedIP != nil {
		return parsedIP.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr)
	return "unknown"
}

// allowRedis reports whether the request fits in the current window. ok is
// false when Redis could not answer.
func (rl *RateLimiterMiddleware) allowRedis(r *http.Request, ip string) (allowed bool, ok bool) {
	ctx := r.Context()
	key := fmt.Sprintf("ratelimit:%s", ip)

	pipe := rl.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.ErrorContext(ctx, "Redis pipeline failed during rate limiting check", "error", err, "ip", ip, "key", key)
		return false, false
	}

	currentCount, err := incrCmd.Result()
	if err != nil {
		rl.logger.ErrorContext(ctx, "Failed to get INCR result after pipeline exec", "error", err, "ip", ip, "key", key)
		return false, false
	}

	ttl, err := ttlCmd.Result()
	if err != nil {
		rl.logger.ErrorContext(ctx, "Failed to get TTL result after pipeline exec", "error", err, "ip", ip, "key", key)
	}
	if ttl < 0 {
		if err := rl.redisClient.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.ErrorContext(ctx, "Failed to set Redis EXPIRE for rate limit key", "error", err, "ip", ip, "key", key)
		}
	}

	return currentCount <= rl.windowLimit(), true
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if ip == "unknown" {
			rl.logger.ErrorContext(r.Context(), "Blocking request due to unknown client IP for rate limiting")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		allowed, ok := false, false
		if rl.redisClient != nil {
			allowed, ok = rl.allowRedis(r, ip)
		}
		if !ok {
			allowed = rl.getLimiter(ip).Allow()
		}

		if !allowed {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
