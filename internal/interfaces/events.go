package interfaces

import (
	"context"

	"writingway/internal/models"
)

// EventPublisher публикует доменные события во внешнюю шину.
type EventPublisher interface {
	Publish(ctx context.Context, event models.DomainEvent) error
	Close() error
}
