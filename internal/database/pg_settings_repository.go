package database

import (
	"context"
	"errors"
	"fmt"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.SettingsRepository = (*pgSettingsRepository)(nil)

type pgSettingsRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgSettingsRepository создает репозиторий настроек пользователя.
func NewPgSettingsRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SettingsRepository {
	return &pgSettingsRepository{
		db:     db,
		logger: logger.Named("PgSettingsRepo"),
	}
}

func (r *pgSettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	query := `SELECT id, user_id, theme, language, font_size, auto_save, ai_settings, created_at, updated_at
		FROM user_settings WHERE user_id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))
	s := &models.UserSettings{}
	var aiSettings []byte
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&s.ID, &s.UserID, &s.Theme, &s.Language, &s.FontSize, &s.AutoSave, &aiSettings, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get user settings", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	s.AISettings = aiSettings
	return s, nil
}

// Upsert создает строку настроек или перезаписывает существующую (уникальный user_id).
func (r *pgSettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	aiSettings := []byte(s.AISettings)
	if len(aiSettings) == 0 {
		aiSettings = []byte(`{}`)
	}
	query := `INSERT INTO user_settings (user_id, theme, language, font_size, auto_save, ai_settings)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET
			theme       = EXCLUDED.theme,
			language    = EXCLUDED.language,
			font_size   = EXCLUDED.font_size,
			auto_save   = EXCLUDED.auto_save,
			ai_settings = EXCLUDED.ai_settings,
			updated_at  = NOW()
		RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", s.UserID.String()))
	err := r.db.QueryRow(ctx, query, s.UserID, s.Theme, s.Language, s.FontSize, s.AutoSave, string(aiSettings)).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert user settings", zap.Error(err), zap.String("userID", s.UserID.String()))
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}
	s.AISettings = aiSettings
	return nil
}
