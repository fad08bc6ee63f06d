// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// MessagesStats returns the number of messages in a conversation and the
// highest message id. Messages are append-only, so the pair changes exactly
// when the conversation does. An empty conversation yields (0, 0, nil).
func MessagesStats(ctx context.Context, db *gorm.DB, conv string) (count int64, lastID int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conv)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	lastID, err = LastMessageID(ctx, db, conv)
	if err != nil {
		return 0, 0, err
	}
	return count, lastID, nil
}

// ActionsStats returns the number of audit rows of a conversation and the id
// of the latest one (by creation time).
func ActionsStats(ctx context.Context, db *gorm.DB, conv string) (count int64, lastID string, err error) {
	q := db.WithContext(ctx).Model(&domain.ActionLog{}).Where("conversation_id = ?", conv)

	if err = q.Count(&count).Error; err != nil {
		return 0, "", err
	}
	if count == 0 {
		return 0, "", nil
	}

	var row struct{ ID string }
	if err = db.WithContext(ctx).Model(&domain.ActionLog{}).
		Where("conversation_id = ?", conv).
		Select("id").Order("created_at DESC, id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, "", err
	}
	return count, row.ID, nil
}
