// Package handlers exposes the assistant over REST:
//   - sessions: login against WordPress and Gemini, status, logout
//   - messages: send a message, read or export the conversation
//   - actions:  the audit log of actions dispatched to WordPress
//   - preferences: the remembered UI theme
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// and idempotent responses).
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/http/middleware"
	"github.com/tbourn/wp-category-assistant/internal/session"
	"github.com/tbourn/wp-category-assistant/internal/utils"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"
)

//
// Service contracts (context-aware)
//

// SessionService manages login sessions.
type SessionService interface {
	// Login validates creds and the LLM key and opens a session for userID.
	Login(ctx context.Context, userID string, creds wordpress.Credentials) (session.Snapshot, error)
	// Get returns a live session.
	Get(id string) (session.Snapshot, error)
	// Logout drops a session.
	Logout(id string) error
}

// MessageService sends messages and reads the conversation.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MessageService interface {
	// Send processes one user message and returns the assistant reply.
	Send(ctx context.Context, userID, sessionID, text string) (*domain.Message, error)
	// Replay returns a previously produced message of userID.
	Replay(ctx context.Context, userID string, messageID int64) (*domain.Message, error)
	// ListPage returns a page of the user's conversation and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Message, int64, error)
	// Export returns the whole conversation as JSON.
	Export(ctx context.Context, userID string) ([]byte, error)
}

// ActionService reads the action audit log.
type ActionService interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ActionLog, int64, error)
}

// PreferenceService reads and stores client preferences.
type PreferenceService interface {
	Theme(ctx context.Context, userID string) (domain.Theme, error)
	SetTheme(ctx context.Context, userID, theme string) (*domain.Preference, error)
}

//
// Handler wiring
//

// Options carries handler settings taken from configuration.
type Options struct {
	// DefaultWPURL and DefaultUsername prefill a login that omits them.
	// The application password never has a default.
	DefaultWPURL    string
	DefaultUsername string

	// IdempotencyTTL is how long a replayable send result is kept.
	IdempotencyTTL time.Duration
}

// Handlers groups the HTTP endpoints. It depends on service interfaces to
// keep transport concerns apart from business logic.
type Handlers struct {
	sessions SessionService
	msgSvc   MessageService
	actSvc   ActionService
	prefSvc  PreferenceService
	opts     Options
}

// New returns Handlers bound to the given services.
func New(sessions SessionService, msgSvc MessageService, actSvc ActionService, prefSvc PreferenceService, opts Options) *Handlers {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &Handlers{sessions: sessions, msgSvc: msgSvc, actSvc: actSvc, prefSvc: prefSvc, opts: opts}
}

// userID is the caller's identity, which also names their conversation.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination reads page and page_size from the query string.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), utils.DefaultPage),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
}

func newPagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// notModified sets etag and reports whether the request's If-None-Match
// matches it, in which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
