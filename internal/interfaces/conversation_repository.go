package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// ConversationRepository - хранилище диалогов с ассистентом.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.AIConversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AIConversation, error)
	// FindLatest возвращает последний диалог пользователя по проекту (projectID может быть nil).
	FindLatest(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*models.AIConversation, error)
	ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error)
	// AppendMessages атомарно дописывает сообщения в конец истории.
	AppendMessages(ctx context.Context, id uuid.UUID, msgs ...models.ConversationMessage) error
	// ClearMessages очищает историю, сам диалог остаётся.
	ClearMessages(ctx context.Context, id uuid.UUID) error
}
