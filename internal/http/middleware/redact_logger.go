// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. Besides writing
// one structured line per request it creates the request-scoped logger and
// attaches it both to the Gin context (LoggerFrom) and to the request's
// context.Context, so services and outbound clients can log through
// zerolog.Ctx(ctx) with the same request_id and user_id.
//
// Bodies are never logged: login payloads carry WordPress application
// passwords. Header values and the query string are scrubbed of e-mails,
// phone numbers and UUIDs (session ids), and credential headers are masked
// outright.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the logged query string, in bytes.
const maxQueryLogLength = 2048

// RedactOptions lists extra headers whose values are replaced by
// "[REDACTED]". Matching is case-insensitive; Authorization, Cookie and
// Set-Cookie are always masked.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// UUIDs go first so the phone pattern never eats their digit groups.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger returns the access-log middleware. Requests finishing with
// 5xx or with Gin errors are logged at error level, 4xx at warn, the rest at
// info.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		lg := log.With().
			Str("request_id", reqID).
			Str("user_id", UserID(c)).
			Logger()
		c.Set(loggerKey, &lg)
		c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}
		query := truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = lg.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}

		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
