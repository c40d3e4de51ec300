package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// SettingsRepository - хранилище пользовательских настроек.
type SettingsRepository interface {
	// GetByUserID returns models.ErrNotFound when the user has no settings row yet.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	// Upsert creates or replaces the settings row of settings.UserID.
	Upsert(ctx context.Context, settings *models.UserSettings) error
}
