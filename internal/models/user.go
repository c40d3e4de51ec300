package models

import (
	"time"

	"github.com/google/uuid"
)

// User - учетная запись автора.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	AgeGroup     *string    `json:"age_group,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserProfileUpdate - частичное обновление профиля. nil означает "не менять".
type UserProfileUpdate struct {
	FullName  *string
	BirthDate *time.Time
	AgeGroup  *string
}
