// Preference HTTP handlers.
//
//   - GET /preferences/theme  (stored theme, "light" by default)
//   - PUT /preferences/theme  (store "light" or "dark")
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/services"
)

// ThemeRequest is the payload of PUT /preferences/theme.
type ThemeRequest struct {
	Theme string `json:"theme" binding:"required" example:"dark"`
}

// ThemeResponse carries the caller's theme.
type ThemeResponse struct {
	Theme domain.Theme `json:"theme" example:"light"`
}

// GetTheme godoc
// @ID          getTheme
// @Summary     Get the UI theme
// @Tags        Preferences
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object} handlers.ThemeResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /preferences/theme [get]
func (h *Handlers) GetTheme(c *gin.Context) {
	th, err := h.prefSvc.Theme(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ThemeResponse{Theme: th})
}

// PutTheme godoc
// @ID          putTheme
// @Summary     Store the UI theme
// @Tags        Preferences
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ThemeRequest  true  "Theme payload"
// @Success     200  {object} domain.Preference
// @Failure     400  {object} handlers.ErrorResponse "Theme must be light or dark"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /preferences/theme [put]
func (h *Handlers) PutTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "theme required")
		return
	}
	p, err := h.prefSvc.SetTheme(c.Request.Context(), userID(c), req.Theme)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTheme) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
