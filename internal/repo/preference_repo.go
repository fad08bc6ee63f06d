// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Preference
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a record is not found, functions return ErrNotFound (an alias of
//     gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - GetPreference(ctx, db, userID) -> *domain.Preference, error
//     Fetches the stored preferences of a user, or ErrNotFound.
//
//   - SetTheme(ctx, db, userID, theme) -> *domain.Preference, error
//     Inserts or updates the theme of a user in a single statement.
//
// Usage:
//
//	pref, err := repo.GetPreference(ctx, db, userID)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // fall back to the default theme
//	}
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/wp-category-assistant/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetPreference fetches the preferences of userID. If none were stored yet,
// it returns ErrNotFound.
func GetPreference(ctx context.Context, db *gorm.DB, userID string) (*domain.Preference, error) {
	var p domain.Preference
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetTheme upserts the theme of userID and returns the stored row.
// The theme value is checked by the database constraint; callers validate
// it first to produce a friendly error.
func SetTheme(ctx context.Context, db *gorm.DB, userID string, theme domain.Theme) (*domain.Preference, error) {
	p := &domain.Preference{
		UserID:    userID,
		Theme:     theme,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"theme", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}
