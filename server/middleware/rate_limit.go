package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// Limiter table bounds. A client idle for longer than the TTL starts over with a full bucket.
const (
	DefaultMaxClients = 10000
	DefaultClientTTL  = 10 * time.Minute
)

// RateLimiter provides per-client token bucket rate limiting.
type RateLimiter struct {
	mu     sync.Mutex
	limits *expirable.LRU[string, *rate.Limiter]
	rps    rate.Limit
	burst  int
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// with the given burst. Non-positive values select 10 rps with a burst of 20.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return newRateLimiter(rps, burst, DefaultMaxClients, DefaultClientTTL)
}

func newRateLimiter(rps float64, burst, maxClients int, ttl time.Duration) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, ttl),
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key. Re-adding the entry
// pushes its expiry out, so only idle clients are evicted.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limits.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
	}
	rl.limits.Add(key, limiter)
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
