package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Значения настроек по умолчанию.
const (
	DefaultTheme    = "light"
	DefaultLanguage = "en"
	DefaultFontSize = 14
)

// UserSettings - настройки пользователя (1:1 с users).
type UserSettings struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Theme      string          `json:"theme"`
	Language   string          `json:"language"`
	FontSize   int             `json:"font_size"`
	AutoSave   bool            `json:"auto_save"`
	AISettings json.RawMessage `json:"ai_settings"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewDefaultSettings возвращает настройки по умолчанию для пользователя.
func NewDefaultSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		UserID:     userID,
		Theme:      DefaultTheme,
		Language:   DefaultLanguage,
		FontSize:   DefaultFontSize,
		AutoSave:   true,
		AISettings: json.RawMessage(`{}`),
	}
}

// SettingsUpdate - частичное обновление настроек.
type SettingsUpdate struct {
	Theme      *string
	Language   *string
	FontSize   *int
	AutoSave   *bool
	AISettings json.RawMessage
}

// Apply переносит непустые поля обновления в настройки.
func (u SettingsUpdate) Apply(s *UserSettings) {
	if u.Theme != nil {
		s.Theme = *u.Theme
	}
	if u.Language != nil {
		s.Language = *u.Language
	}
	if u.FontSize != nil {
		s.FontSize = *u.FontSize
	}
	if u.AutoSave != nil {
		s.AutoSave = *u.AutoSave
	}
	if len(u.AISettings) > 0 {
		s.AISettings = u.AISettings
	}
}
