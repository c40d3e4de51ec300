package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// DocumentRepository - хранилище документов. Проверка владельца проекта делается в сервисе.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	// ListByProject возвращает активные документы в порядке order_index, created_at.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error)
	Update(ctx context.Context, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error)
	// UpdateContent сохраняет только текст (автосохранение редактора).
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.Document, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Delete удаляет документ; у дочерних документов parent_id становится NULL.
	Delete(ctx context.Context, id uuid.UUID) error
}
