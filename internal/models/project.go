package models

import (
	"time"

	"github.com/google/uuid"
)

// Project - контейнер для документов и компендиума, принадлежит одному пользователю.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverImage  *string   `json:"cover_image,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectUpdate - частичное обновление проекта.
type ProjectUpdate struct {
	Name        *string
	Description *string
	CoverImage  *string
}
