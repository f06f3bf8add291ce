package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodscrape/config"
	"github.com/use-agent/prodscrape/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per caller identity (API key, else
// client IP). It limits inbound API calls only; outbound page fetches are
// not throttled.
type RateLimiter struct {
	cfg config.RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*limiterEntry

	done chan struct{}
	once sync.Once
}

// NewRateLimiter creates a RateLimiter and starts a goroutine that evicts
// identities idle for an hour. Call Stop to end it.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*limiterEntry),
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop(5*time.Minute, time.Hour)
	return rl
}

// Middleware returns the gin handler enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get(ContextKeyAPIKey); ok {
			identity = "key:" + key.(string)
		}

		r := rl.get(identity).Reserve()
		if !r.OK() {
			rl.abort(c, time.Second)
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			rl.abort(c, delay)
			return
		}

		c.Next()
	}
}

// Stop terminates the eviction goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) get(identity string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e, ok := rl.limiters[identity]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.limiters[identity] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (rl *RateLimiter) abort(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeRateLimited,
			Message: "rate limit exceeded, please slow down",
		},
	})
}

func (rl *RateLimiter) cleanupLoop(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-idle)
			rl.mu.Lock()
			for id, e := range rl.limiters {
				if e.lastSeen.Before(cutoff) {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		}
	}
}
