package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyedLimiter holds one token bucket per key with idle eviction.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int

	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(r rate.Limit, burst int) *keyedLimiter {
	kl := &keyedLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go kl.evictLoop()
	return kl
}

// stopEviction terminates the eviction goroutine. Buckets already held
// stay usable. Safe to call more than once.
func (kl *keyedLimiter) stopEviction() {
	kl.stopOnce.Do(func() {
		close(kl.stop)
	})
}

func (kl *keyedLimiter) allow(key string) bool {
	kl.mu.Lock()
	entry, ok := kl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.rate, kl.burst)}
		kl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	kl.mu.Unlock()
	return entry.limiter.Allow()
}

func (kl *keyedLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-3 * time.Minute)
			kl.mu.Lock()
			for key, entry := range kl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(kl.limiters, key)
				}
			}
			kl.mu.Unlock()
		case <-kl.stop:
			return
		}
	}
}

// IPRateLimit throttles unauthenticated traffic per client IP.
func IPRateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(r, burst)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"data": nil, "errors": []string{"too many requests"}})
			return
		}
		c.Next()
	}
}

// UserRateLimit throttles authenticated traffic per user. Must run after
// AuthMiddleware; requests without an identity fall back to client IP.
func UserRateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	limiter := newKeyedLimiter(r, burst)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := c.GetInt("userID"); userID != 0 {
			key = strconv.Itoa(userID)
		}
		if !limiter.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"data": nil, "errors": []string{"too many requests"}})
			return
		}
		c.Next()
	}
}
