package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// CompendiumRepository - хранилище записей компендиума.
type CompendiumRepository interface {
	Create(ctx context.Context, entry *models.CompendiumEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CompendiumEntry, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error)
	Update(ctx context.Context, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
