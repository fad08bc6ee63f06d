// Package services – ActionService
//
// This file implements ActionService, which exposes the audit log of actions
// the assistant dispatched to WordPress, newest first.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/repo"
	"github.com/tbourn/wp-category-assistant/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ActionService reads the action audit log.
type ActionService struct {
	DB *gorm.DB
}

// ListPage returns a page of the user's action log and the total count.
func (s *ActionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ActionLog, int64, error) {
	tr := otel.Tracer("services/ActionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = utils.ClampPage(page, pageSize)

	total, err := repo.CountActionLogs(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ActionLog{}, 0, nil
	}
	items, err := repo.ListActionLogsPage(ctx, s.DB, userID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}
