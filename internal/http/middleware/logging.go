// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the per-request identity plumbing every other piece of
// the chain relies on:
//
//   - RequestID() propagates or generates the X-Request-ID correlation id.
//   - Identity() resolves the caller's user id (X-User-ID, "demo-user" when
//     absent). The user id also names the caller's conversation.
//   - Recovery() turns panics into the standard JSON 500 envelope.
//   - LoggerFrom() returns the request-scoped logger attached by
//     RedactingLogger.
//
// Recommended order: RequestID, Identity, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"

	userIDKey    = "userID"
	userIDHeader = "X-User-ID"

	// DefaultUserID identifies callers that send no X-User-ID.
	DefaultUserID = "demo-user"

	loggerKey = "logger"
)

// RequestID reuses the incoming X-Request-ID or generates a UUIDv4, then
// echoes it on the response and stores it in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Identity stores the caller's user id in the Gin context under "userID".
// A value already set by an upstream authenticator wins over the header.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userIDKey, UserID(c))
		c.Next()
	}
}

// UserID returns the caller's user id: the "userID" context value, then the
// X-User-ID header, then DefaultUserID.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(userIDHeader)); h != "" {
			return h
		}
	}
	return DefaultUserID
}

// Recovery logs a recovered panic with its stack and, when nothing has been
// written yet, answers with the JSON 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid, _ := c.Get(requestIDKey)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", asString(rid)).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, asString(rid))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": asString(rid),
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger. Without RedactingLogger in
// the chain it falls back to the global logger.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
