package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли сообщений в диалоге с ассистентом.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationMessage - одно сообщение диалога.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AIConversation - история диалога пользователя с ассистентом в рамках проекта.
// Сообщения только добавляются, кроме явной очистки.
type AIConversation struct {
	ID         uuid.UUID             `json:"id"`
	UserID     uuid.UUID             `json:"user_id"`
	ProjectID  *uuid.UUID            `json:"project_id,omitempty"`
	DocumentID *uuid.UUID            `json:"document_id,omitempty"`
	Messages   []ConversationMessage `json:"messages"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
