// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-caller token-bucket rate limiter that guards
// the LLM and WordPress budgets. Buckets come from golang.org/x/time/rate,
// are keyed by user id (or client IP) and are garbage-collected
// opportunistically. The limiter is process-local.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorTTL       = 10 * time.Minute
	visitorGCEveryN  = 5000
	rateLimitedCode  = "too_many_requests"
	rateLimitedRetry = "1"
)

// keyFunc maps a request to its bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by "user:<id>" when Identity (or an
// authenticator) set a user id, otherwise by "ip:<addr>".
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(userIDKey); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. It is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      visitorTTL,
	}
}

// getVisitor returns the bucket for key. Every visitorGCEveryN lookups it
// first drops buckets idle for at least the TTL, so a stale bucket is
// evicted even when it is the one being asked for.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= visitorGCEveryN {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator exempted this request.
func IsRateBypass(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyRateBypass)
	b, _ := v.(bool)
	return b
}

// Handler returns the limiting middleware. Idempotent replays are not
// charged; exhausted buckets get 429 with Retry-After and the standard error
// envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", rateLimitedRetry)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       rateLimitedCode,
			"message":    "rate limit exceeded",
		})
	}
}
