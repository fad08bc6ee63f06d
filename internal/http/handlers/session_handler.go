// Session HTTP handlers.
//
// This file exposes the login lifecycle:
//   - POST   /sessions        (login: validate WordPress and Gemini)
//   - GET    /sessions/{id}   (connection statuses)
//   - DELETE /sessions/{id}   (logout)
//
// A session belongs to the user that opened it; other users get 404.
// Responses are never cached: they describe live connection state.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/wp-category-assistant/internal/session"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"
)

//
// DTOs
//

// LoginRequest is the login form. WPURL and Username fall back to the
// server's configured defaults when omitted.
type LoginRequest struct {
	// WPURL is the WordPress site root.
	WPURL string `json:"wp_url" binding:"omitempty,url" example:"https://shop.example.com"`
	// Username is the WordPress user owning the application password.
	Username string `json:"username" example:"editor"`
	// AppPassword is a WordPress application password.
	AppPassword string `json:"app_password" binding:"required" example:"abcd efgh ijkl mnop"`
}

// SessionResponse describes a session and whether chatting is possible.
type SessionResponse struct {
	session.Snapshot
	ChatReady bool `json:"chat_ready"`
}

func sessionResponse(s session.Snapshot) SessionResponse {
	return SessionResponse{Snapshot: s, ChatReady: s.ChatReady()}
}

//
// Helpers
//

// ownedSession resolves the :id session of the caller, writing the error
// response and returning false when it cannot.
func (h *Handlers) ownedSession(c *gin.Context) (session.Snapshot, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return session.Snapshot{}, false
	}
	snap, err := h.sessions.Get(id)
	if err != nil || snap.UserID != userID(c) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return session.Snapshot{}, false
	}
	return snap, true
}

//
// Handlers
//

// CreateSession godoc
// @ID          createSession
// @Summary     Log in
// @Description Validates the WordPress credentials and the Gemini API key concurrently and opens a session.
// @Description The session is created even when a validation fails; chat_ready tells whether messages can be sent.
// @Description A welcome message is added to the conversation when both validations succeed.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.LoginRequest  true  "Login payload"
//
// @Success     201  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app_password required, wp_url must be a URL")
		return
	}
	creds := wordpress.Credentials{
		WPURL:       strings.TrimSpace(req.WPURL),
		Username:    strings.TrimSpace(req.Username),
		AppPassword: req.AppPassword,
	}
	if creds.WPURL == "" {
		creds.WPURL = h.opts.DefaultWPURL
	}
	if creds.Username == "" {
		creds.Username = h.opts.DefaultUsername
	}
	if creds.WPURL == "" || creds.Username == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "wp_url and username required")
		return
	}

	snap, err := h.sessions.Login(c.Request.Context(), userID(c), creds)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Location", c.FullPath()+"/"+snap.ID)
	ok(c, http.StatusCreated, sessionResponse(snap))
}

// GetSession godoc
// @ID          getSession
// @Summary     Get session status
// @Description Returns the WordPress and Gemini connection statuses of a session.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
//
// @Success     200  {object} handlers.SessionResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	snap, found := h.ownedSession(c)
	if !found {
		return
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, sessionResponse(snap))
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Log out
// @Description Drops the session and its credentials. The conversation is kept.
// @Tags        Sessions
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	snap, found := h.ownedSession(c)
	if !found {
		return
	}
	if err := h.sessions.Logout(snap.ID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
