// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, the
// WordPress and Gemini clients, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "wp-category-assistant")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WordPressConfig holds settings for the WordPress REST client. Only
// non-secret defaults are read from the environment; the application password
// is always supplied at login.
type WordPressConfig struct {
	Timeout         time.Duration // WP_TIMEOUT
	DefaultURL      string        // WP_DEFAULT_URL
	DefaultUsername string        // WP_DEFAULT_USERNAME
}

// LLMConfig holds settings for the Gemini client.
type LLMConfig struct {
	APIKey     string        // GEMINI_API_KEY (falls back to API_KEY)
	Model      string        // GEMINI_MODEL
	Vocabulary string        // LLM_VOCABULARY, e.g. "fr-v1"
	Timeout    time.Duration // LLM_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 90s (LLM round trips are slow)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath         string        // SQLite path
	Locale         string        // fr|en, language of user-facing replies
	MaxPromptRunes int           // cap on a single user message
	SessionIdleTTL time.Duration // idle sessions are evicted after this

	// Remote dependencies
	WordPress WordPressConfig
	LLM       LLMConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:         getenv("DB_PATH", "app.db"),
		Locale:         strings.ToLower(getenv("LOCALE", "fr")),
		MaxPromptRunes: getint("MAX_PROMPT_RUNES", 4000),
		SessionIdleTTL: getdur("SESSION_IDLE_TTL", 12*time.Hour),

		WordPress: WordPressConfig{
			Timeout:         getdur("WP_TIMEOUT", 30*time.Second),
			DefaultURL:      strings.TrimSpace(getenv("WP_DEFAULT_URL", "")),
			DefaultUsername: strings.TrimSpace(getenv("WP_DEFAULT_USERNAME", "")),
		},
		LLM: LLMConfig{
			APIKey:     firstEnv("GEMINI_API_KEY", "API_KEY"),
			Model:      getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			Vocabulary: strings.ToLower(getenv("LLM_VOCABULARY", "fr-v1")),
			Timeout:    getdur("LLM_TIMEOUT", 60*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "wp-category-assistant"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if i := strings.IndexAny(cfg.Locale, "-_"); i > 0 {
		cfg.Locale = cfg.Locale[:i] // "fr-FR" -> "fr"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.Locale {
	case "fr", "en":
	default:
		return cfg, errors.New("LOCALE must be one of: fr, en")
	}
	if cfg.MaxPromptRunes < 1 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be >= 1")
	}
	if cfg.SessionIdleTTL <= 0 {
		return cfg, errors.New("SESSION_IDLE_TTL must be > 0")
	}
	if cfg.WordPress.Timeout <= 0 || cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("WP_TIMEOUT and LLM_TIMEOUT must be positive durations")
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.LLM.Vocabulary) == "" {
		return cfg, errors.New("LLM_VOCABULARY must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty value among the given variables.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
