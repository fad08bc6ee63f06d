// Command server runs the WooCommerce category assistant HTTP API.
//
// @title       WP Category Assistant API
// @version     1.0
// @description Chat assistant that reads and edits WooCommerce product categories through the WordPress REST API, driven by Gemini.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/wp-category-assistant/internal/config"
	"github.com/tbourn/wp-category-assistant/internal/conversation"
	"github.com/tbourn/wp-category-assistant/internal/dispatch"
	httpapi "github.com/tbourn/wp-category-assistant/internal/http"
	"github.com/tbourn/wp-category-assistant/internal/http/handlers"
	"github.com/tbourn/wp-category-assistant/internal/i18n"
	"github.com/tbourn/wp-category-assistant/internal/llm"
	"github.com/tbourn/wp-category-assistant/internal/observability"
	"github.com/tbourn/wp-category-assistant/internal/repo"
	"github.com/tbourn/wp-category-assistant/internal/services"
	"github.com/tbourn/wp-category-assistant/internal/session"
	"github.com/tbourn/wp-category-assistant/internal/sysutil"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"
)

const (
	version         = "1.0.0"
	janitorInterval = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	envErr := godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		logger.Debug().Msg("no .env file, using process environment")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	loc := i18n.New(cfg.Locale)
	vocab, err := llm.LoadVocabulary(cfg.LLM.Vocabulary)
	if err != nil {
		logger.Fatal().Err(err).Str("vocabulary", cfg.LLM.Vocabulary).Strs("available", llm.Vocabularies()).Msg("load llm vocabulary")
	}

	// A missing or rejected key leaves gen nil; login then reports the LLM
	// as errored instead of refusing to start.
	var gen llm.Generator
	if g, err := llm.NewGenAIGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model, observability.NewHTTPClient(cfg.LLM.Timeout)); err != nil {
		logger.Warn().Err(err).Msg("gemini client unavailable")
	} else {
		gen = g
	}
	llmClient := llm.New(gen, vocab)
	wpClient := wordpress.New(observability.NewHTTPClient(cfg.WordPress.Timeout))

	convLog := conversation.NewLog(conversation.NewGormStore(db), loc, nil)
	sessions := session.NewManager(wpClient, llmClient, convLog, loc, cfg.SessionIdleTTL)
	go sessions.Run(ctx, janitorInterval)

	h := handlers.New(
		sessions,
		&services.MessageService{
			DB:             db,
			Sessions:       sessions,
			Log:            convLog,
			LLM:            llmClient,
			Dispatcher:     dispatch.New(wpClient, loc),
			Loc:            loc,
			MaxPromptRunes: cfg.MaxPromptRunes,
		},
		&services.ActionService{DB: db},
		&services.PreferenceService{DB: db},
		handlers.Options{
			DefaultWPURL:    cfg.WordPress.DefaultURL,
			DefaultUsername: cfg.WordPress.DefaultUsername,
			IdempotencyTTL:  cfg.IdempotencyTTL,
		},
	)

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Handlers: h}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("locale", loc.Tag().String()).
			Str("vocabulary", vocab.Version).
			Bool("swagger", cfg.SwaggerEnabled).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(sctx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
