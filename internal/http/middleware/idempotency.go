// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header of message sends. A send is
// expensive (one LLM call, possibly a WordPress write), so a client retrying
// with the same key must get the stored reply instead of a second round
// trip. The middleware only validates and classifies; the message handler
// serves the stored reply.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a stored result exists for this request's key.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether an unexpired result is stored for
// (userID, sessionID, key). Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error)

// IdempotencyValidator rejects malformed keys with 400, stashes valid ones
// for GetIdempotencyKey and, when lookup finds a stored result for the
// session named by the :id route parameter, marks the request as a replay
// that the rate limiter lets through. Requests without the header pass
// untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if sessionID := c.Param("id"); sessionID != "" {
				if found, err := lookup(c.Request.Context(), UserID(c), sessionID, key, time.Now().UTC()); err == nil && found {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
