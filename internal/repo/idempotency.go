// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for message sends.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, session_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, sessionID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND key = ? AND expires_at > ?", userID, sessionID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, sessionID, key string, messageID int64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Key:       key,
		MessageID: messageID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// isUniqueViolation recognizes UNIQUE failures; glebarez/sqlite often returns
// them as plain-text errors.
func isUniqueViolation(err error) bool {
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
