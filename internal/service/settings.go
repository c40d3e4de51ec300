package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Допустимый размер шрифта редактора.
const (
	MinFontSize = 8
	MaxFontSize = 48
)

// SettingsService - настройки пользователя.
type SettingsService interface {
	// Get возвращает настройки, создавая значения по умолчанию при первом обращении.
	Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	Update(ctx context.Context, userID uuid.UUID, upd models.SettingsUpdate) (*models.UserSettings, error)
}

var _ SettingsService = (*settingsService)(nil)

type settingsService struct {
	repo   interfaces.SettingsRepository
	logger *zap.Logger
}

func NewSettingsService(repo interfaces.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger.Named("SettingsService")}
}

func (s *settingsService) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	settings, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	settings = models.NewDefaultSettings(userID)
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	s.logger.Info("Default settings created", zap.Stringer("userID", userID))
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, userID uuid.UUID, upd models.SettingsUpdate) (*models.UserSettings, error) {
	if upd.FontSize != nil && (*upd.FontSize < MinFontSize || *upd.FontSize > MaxFontSize) {
		return nil, fmt.Errorf("font size must be between %d and %d: %w", MinFontSize, MaxFontSize, models.ErrInvalidInput)
	}
	if len(upd.AISettings) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(upd.AISettings, &obj); err != nil {
			return nil, fmt.Errorf("ai_settings must be a JSON object: %w", models.ErrInvalidInput)
		}
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	upd.Apply(settings)
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	s.logger.Info("Settings updated", zap.Stringer("userID", userID))
	return settings, nil
}
