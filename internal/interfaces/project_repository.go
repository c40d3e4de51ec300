package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// ProjectRepository - хранилище проектов. Все методы, кроме Create,
// ограничены владельцем: чужой проект выглядит как models.ErrProjectNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, upd models.ProjectUpdate) (*models.Project, error)
	// SoftDelete помечает проект неактивным.
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error
	// Delete удаляет проект вместе с документами, компендиумом и диалогами (ON DELETE CASCADE).
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}
