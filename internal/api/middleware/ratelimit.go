package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/dfs-lineup/pkg/utils"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	ttl     time.Duration
	mu      sync.Mutex
	clients map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, ok := rl.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = now
	if len(rl.clients) > 1024 {
		rl.evict(now)
	}
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// evict drops idle clients. Callers hold mu.
func (rl *RateLimiter) evict(now time.Time) {
	for key, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > rl.ttl {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			utils.SendTooManyRequests(c, "Too many optimization requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
