package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-memory per-IP token bucket. It exists to blunt a
// script hammering the check-in endpoint from one address; it is not a
// fairness mechanism and resets on restart.
type RateLimiter struct {
	capacity int
	perMin   int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewRateLimiter creates a limiter holding capacity tokens refilled at
// perMinute.
func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &RateLimiter{
		capacity: capacity,
		perMin:   perMinute,
		state:    make(map[string]*bucket),
	}
}

// Handler returns a gin middleware enforcing the per-IP limit.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.perMin))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
