// Message HTTP handlers.
//
// This file exposes the conversation:
//   - POST /sessions/{id}/messages  (send a message, get the assistant reply)
//   - GET  /messages                (paginated conversation, ETag support)
//   - GET  /messages/export         (whole conversation as a JSON download)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (user, session, key), the handler returns the recorded
// assistant message with `Idempotency-Replayed: true`; neither the LLM nor
// WordPress is called again.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/http/middleware"
	"github.com/tbourn/wp-category-assistant/internal/repo"
	"github.com/tbourn/wp-category-assistant/internal/services"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for sending a user message.
type PostMessageRequest struct {
	// Text is the user prompt. It must be non-empty after trimming.
	Text string `json:"text" binding:"required" example:"Liste les catégories de produits"`
}

// PostMessageResponse wraps the assistant reply.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse contains a page of the conversation.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF and CR to LF, collapses blank-line runs and
// trims the text.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// messageDB returns the database behind the concrete MessageService, or nil.
func (h *Handlers) messageDB() *gorm.DB {
	if svc, ok := h.msgSvc.(*services.MessageService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message and get the assistant reply
// @Description Appends the user message to the conversation, asks Gemini once, executes the returned action
// @Description against WordPress when there is one, and appends the assistant reply.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID that owns the session"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Session ID (UUID)"              format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "User message payload"
//
// @Success     200  {object}  handlers.PostMessageResponse  "Assistant reply"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse        "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse        "Not connected, or a message is already being processed"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	text := sanitizeContent(req.Text)
	if text == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	uid := userID(c)
	db := h.messageDB()

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, uid, sessionID, idemKey, time.Now().UTC()); err == nil {
			if prev, err := h.msgSvc.Replay(ctx, uid, rec.MessageID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, PostMessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := h.msgSvc.Send(ctx, uid, sessionID, text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case errors.Is(err, services.ErrNotConnected):
			fail(c, http.StatusConflict, ErrCodeNotConnected, "WordPress or Gemini connection is not established")
		case errors.Is(err, services.ErrSendInFlight):
			fail(c, http.StatusConflict, ErrCodeSendInFlight, "a message is already being processed")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text too long")
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" && db != nil {
		if _, err := repo.CreateIdempotency(ctx, db, uid, sessionID, idemKey, m.ID, http.StatusOK, h.opts.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusOK, PostMessageResponse{Message: m})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List the conversation
// @Description Returns a page of the caller's conversation, oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"messages:user123:3:1729000000002\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	if db := h.messageDB(); db != nil {
		if count, lastID, err := repo.MessagesStats(ctx, db, uid); err == nil {
			if notModified(c, fmt.Sprintf(`W/"messages:%s:%d:%d"`, uid, count, lastID)) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.msgSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// ExportMessages godoc
// @ID          exportMessages
// @Summary     Export the conversation
// @Description Returns the whole conversation as a JSON array of {id, text, sender, timestamp}.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}  domain.Message
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /messages/export [get]
func (h *Handlers) ExportMessages(c *gin.Context) {
	raw, err := h.msgSvc.Export(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="conversation.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
