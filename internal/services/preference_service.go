// Package services – PreferenceService
//
// This file implements PreferenceService, which reads and stores per-user
// client preferences. A user who never stored a theme gets the light theme.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PreferenceService provides access to user preferences.
type PreferenceService struct {
	DB *gorm.DB
}

// Theme returns the stored theme of userID, or the light theme when none
// was stored.
func (s *PreferenceService) Theme(ctx context.Context, userID string) (domain.Theme, error) {
	tr := otel.Tracer("services/PreferenceService")
	ctx, span := tr.Start(ctx, "Theme", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	p, err := repo.GetPreference(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ThemeLight, nil
	}
	if err != nil {
		return "", err
	}
	return p.Theme, nil
}

// SetTheme stores theme for userID. The value is matched case-insensitively.
func (s *PreferenceService) SetTheme(ctx context.Context, userID, theme string) (*domain.Preference, error) {
	tr := otel.Tracer("services/PreferenceService")
	ctx, span := tr.Start(ctx, "SetTheme",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("theme", theme),
		),
	)
	defer span.End()

	t := domain.Theme(strings.ToLower(strings.TrimSpace(theme)))
	if t != domain.ThemeLight && t != domain.ThemeDark {
		return nil, ErrInvalidTheme
	}
	return repo.SetTheme(ctx, s.DB, userID, t)
}
