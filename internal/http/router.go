// Package httpapi wires the HTTP transport (Gin) to the handlers and the
// middleware stack. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging/redaction, panic recovery, metrics, compression,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/wp-category-assistant/docs"
	"github.com/tbourn/wp-category-assistant/internal/config"
	"github.com/tbourn/wp-category-assistant/internal/http/handlers"
	"github.com/tbourn/wp-category-assistant/internal/http/middleware"
	"github.com/tbourn/wp-category-assistant/internal/repo"
)

// Deps are the collaborators the router needs. DB backs the idempotency
// lookup; it may be nil, in which case Idempotency-Key is only validated.
type Deps struct {
	DB       *gorm.DB
	Handlers *handlers.Handlers
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "X-User-ID", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Location", "Idempotency-Replayed", "Retry-After"}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID and Identity: correlation id and caller id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics and gzip
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID(), middleware.Identity())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", "X-Goog-Api-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics, /metrics endpoint, response compression
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	// 7) Idempotency validation (before rate limiting)
	var lookup middleware.IdempotencyLookup
	if deps.DB != nil {
		db := deps.DB
		lookup = func(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		}
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := deps.Handlers
	if h == nil {
		return
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/messages", h.PostMessage)

		// Conversation
		api.GET("/messages", h.ListMessages)
		api.GET("/messages/export", h.ExportMessages)
		api.GET("/actions", h.ListActions)

		// Preferences
		api.GET("/preferences/theme", h.GetTheme)
		api.PUT("/preferences/theme", h.PutTheme)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
