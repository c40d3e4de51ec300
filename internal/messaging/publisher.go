// Package messaging публикует доменные события WritingWay в RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

var _ interfaces.EventPublisher = (*rabbitEventPublisher)(nil)

// rabbitEventPublisher отправляет события в durable-очередь через default exchange.
type rabbitEventPublisher struct {
	conn      *amqp.Connection
	mu        sync.Mutex
	ch        *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitEventPublisher открывает канал и объявляет очередь.
func NewRabbitEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (interfaces.EventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	p := &rabbitEventPublisher{
		conn:      conn,
		queueName: queueName,
		logger:    logger.Named("EventPublisher").With(zap.String("queue", queueName)),
	}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	p.logger.Info("EventPublisher initialized")
	return p, nil
}

// channel возвращает открытый канал, переоткрывая его после ошибок брокера.
func (p *rabbitEventPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", p.queueName, err)
	}
	p.ch = ch
	return ch, nil
}

// Publish сериализует событие в JSON и публикует его, повторяя до трёх раз.
func (p *rabbitEventPublisher) Publish(ctx context.Context, event models.DomainEvent) error {
	log := p.logger.With(zap.String("type", event.Type), zap.Stringer("eventID", event.EventID))

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		ch, err := p.channel()
		if err == nil {
			err = ch.PublishWithContext(ctx,
				"",          // exchange (default)
				p.queueName, // routing key
				false,       // mandatory
				false,       // immediate
				amqp.Publishing{
					ContentType:  "application/json",
					DeliveryMode: amqp.Persistent,
					MessageId:    event.EventID.String(),
					Type:         event.Type,
					Timestamp:    event.OccurredAt,
					Body:         body,
				},
			)
		}
		if err == nil {
			log.Debug("Event published")
			return nil
		}
		lastErr = err
		log.Warn("Failed to publish event", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < publishAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("publish event %s: %w", event.Type, ctx.Err())
			case <-time.After(publishBackoff * time.Duration(attempt)):
			}
		}
	}
	return fmt.Errorf("publish event %s after %d attempts: %w", event.Type, publishAttempts, lastErr)
}

func (p *rabbitEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch.Close()
}

// noopPublisher используется, когда RabbitMQ не настроен.
type noopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher возвращает публикатор, который только пишет событие в debug-лог.
func NewNoopPublisher(logger *zap.Logger) interfaces.EventPublisher {
	return &noopPublisher{logger: logger.Named("NoopEventPublisher")}
}

func (p *noopPublisher) Publish(_ context.Context, event models.DomainEvent) error {
	p.logger.Debug("Event dropped, no broker configured", zap.String("type", event.Type))
	return nil
}

func (p *noopPublisher) Close() error { return nil }

// Connect подключается к RabbitMQ с несколькими попытками.
func Connect(ctx context.Context, url string, attempts int, delay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if i < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
