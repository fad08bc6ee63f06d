// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// AppendMessages inserts msgs in order for the given conversation. The
// ConversationID of every message is overwritten with conv.
func AppendMessages(ctx context.Context, db *gorm.DB, conv string, msgs ...*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	for _, m := range msgs {
		m.ConversationID = conv
	}
	return db.WithContext(ctx).Create(msgs).Error
}

// ListMessages returns messages in insertion order (row id ASC).
// A limit <= 0 returns the whole conversation.
func ListMessages(ctx context.Context, db *gorm.DB, conv string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).Where("conversation_id = ?", conv).Order("row_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, conv string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conv).
		Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice in insertion order.
func ListMessagesPage(ctx context.Context, db *gorm.DB, conv string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conv).
		Order("row_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LastMessageID returns the highest message id of a conversation, or 0 when
// it has none.
func LastMessageID(ctx context.Context, db *gorm.DB, conv string) (int64, error) {
	var row struct{ ID int64 }
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("msg_id AS id").
		Where("conversation_id = ?", conv).
		Order("msg_id DESC").
		Limit(1).
		Scan(&row).Error
	return row.ID, err
}

// GetMessage fetches one message of a conversation by its public id.
func GetMessage(ctx context.Context, db *gorm.DB, conv string, id int64) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).Where("conversation_id = ? AND msg_id = ?", conv, id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
