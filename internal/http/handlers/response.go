// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the
// ErrorResponse envelope, fail for errors (5xx are logged with the
// request-scoped logger), ok for JSON bodies and noContent.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "session not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wp-category-assistant/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with the error envelope. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for callers outside the package, such as the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes 204.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
