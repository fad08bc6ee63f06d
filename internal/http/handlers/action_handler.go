// Action HTTP handlers.
//
// This file exposes the audit log of actions the assistant dispatched to
// WordPress:
//   - GET /actions  (paginated, newest first, ETag support)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/repo"
	"github.com/tbourn/wp-category-assistant/internal/services"
)

// ListActionsResponse wraps a page of action log entries.
type ListActionsResponse struct {
	Actions    []domain.ActionLog `json:"actions"`
	Pagination Pagination         `json:"pagination"`
}

// ListActions godoc
// @ID          listActions
// @Summary     List dispatched actions
// @Description Returns a page of the actions executed for the caller's conversation with their outcome, newest first.
// @Tags        Actions
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListActionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /actions [get]
func (h *Handlers) ListActions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if svc, isSvc := h.actSvc.(*services.ActionService); isSvc && svc.DB != nil {
		if count, lastID, err := repo.ActionsStats(ctx, svc.DB, uid); err == nil {
			if notModified(c, fmt.Sprintf(`W/"actions:%s:%d:%s"`, uid, count, lastID)) {
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.actSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListActionsResponse{
		Actions:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}
