package service

import (
	"context"
	"time"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// publishEvent отправляет событие; ошибка брокера только логируется.
func publishEvent(ctx context.Context, pub interfaces.EventPublisher, logger *zap.Logger, ev models.DomainEvent) {
	if pub == nil {
		return
	}
	// запрос мог уже завершиться, событие всё равно нужно отправить
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish domain event",
			zap.String("type", ev.Type),
			zap.Stringer("projectID", ev.ProjectID),
			zap.Error(err),
		)
	}
}
