package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы доменных событий.
const (
	EventDocumentSaved   = "document.saved"
	EventDocumentDeleted = "document.deleted"
	EventProjectDeleted  = "project.deleted"
)

// DomainEvent - сообщение, публикуемое в очередь событий.
type DomainEvent struct {
	EventID    uuid.UUID  `json:"event_id"`
	Type       string     `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Source     SaveSource `json:"source,omitempty"`
	Permanent  bool       `json:"permanent,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewDomainEvent заполняет идентификатор и время события.
func NewDomainEvent(eventType string, userID, projectID uuid.UUID) DomainEvent {
	return DomainEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		UserID:     userID,
		ProjectID:  projectID,
		OccurredAt: time.Now().UTC(),
	}
}
