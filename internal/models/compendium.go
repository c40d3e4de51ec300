package models

import (
	"time"

	"github.com/google/uuid"
)

// CompendiumEntry - справочная запись проекта (персонаж, место, предмет...).
type CompendiumEntry struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	EntryType string    `json:"entry_type"`
	Tags      []string  `json:"tags"`
	Aliases   []string  `json:"aliases"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompendiumUpdate - частичное обновление записи. nil-срезы не меняют поле.
type CompendiumUpdate struct {
	Title     *string
	Content   *string
	EntryType *string
	Tags      []string
	Aliases   []string
}

// CompendiumFilter - фильтры списка записей проекта.
type CompendiumFilter struct {
	EntryType string
	Tag       string
}
