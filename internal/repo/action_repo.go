// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ActionLog
// model, the audit trail of actions dispatched to WordPress.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// CreateActionLog inserts one audit row. ID and CreatedAt are filled in when
// empty.
func CreateActionLog(ctx context.Context, db *gorm.DB, a *domain.ActionLog) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(a).Error
}

// CountActionLogs returns the number of audit rows of a conversation.
func CountActionLogs(ctx context.Context, db *gorm.DB, conv string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ActionLog{}).
		Where("conversation_id = ?", conv).
		Count(&total).Error
	return total, err
}

// ListActionLogsPage returns audit rows of a conversation, most recent first.
func ListActionLogsPage(ctx context.Context, db *gorm.DB, conv string, offset, limit int) ([]domain.ActionLog, error) {
	var out []domain.ActionLog
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conv).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
