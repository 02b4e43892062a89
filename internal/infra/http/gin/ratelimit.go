package ginserver

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ClientRateLimiter throttles requests per client IP with a token bucket.
type ClientRateLimiter struct {
	Limit rate.Limit
	Burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientRateLimiter(perSecond float64, burst int) *ClientRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientRateLimiter{Limit: rate.Limit(perSecond), Burst: burst, clients: map[string]*clientLimiter{}}
}

func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := l.limiterFor(c.ClientIP(), time.Now())
		if !limiter.Allow() {
			retry := 1
			if l.Limit > 0 {
				retry = int(math.Ceil(1 / float64(l.Limit)))
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests, slow down", Reason: "rate_limited"})
			return
		}
		c.Next()
	}
}

func (l *ClientRateLimiter) limiterFor(client string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for key, entry := range l.clients {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}
	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.Limit, l.Burst)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}
