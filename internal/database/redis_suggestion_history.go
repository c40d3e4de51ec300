package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"writingway/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.SuggestionHistory = (*redisSuggestionHistory)(nil)

// redisSuggestionHistory хранит по сессии два списка: типы показанных подсказок
// и тексты AI-подсказок. Списки обрезаются LTRIM и живут ttl после последней записи.
type redisSuggestionHistory struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSuggestionHistory создает историю подсказок поверх Redis.
func NewRedisSuggestionHistory(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.SuggestionHistory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisSuggestionHistory{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSuggestionHistory"),
	}
}

func typesKey(sessionID string) string { return "suggestions:types:" + sessionID }
func aiKey(sessionID string) string    { return "suggestions:ai:" + sessionID }

func (h *redisSuggestionHistory) RecentTypes(ctx context.Context, sessionID string) ([]string, error) {
	return h.list(ctx, typesKey(sessionID))
}

func (h *redisSuggestionHistory) PushType(ctx context.Context, sessionID, suggestionType string, limit int) error {
	return h.push(ctx, typesKey(sessionID), suggestionType, limit)
}

func (h *redisSuggestionHistory) RecentAISuggestions(ctx context.Context, sessionID string) ([]string, error) {
	return h.list(ctx, aiKey(sessionID))
}

func (h *redisSuggestionHistory) PushAISuggestion(ctx context.Context, sessionID, text string, limit int) error {
	return h.push(ctx, aiKey(sessionID), text, limit)
}

func (h *redisSuggestionHistory) list(ctx context.Context, key string) ([]string, error) {
	vals, err := h.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		h.logger.Error("Failed to read suggestion history", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read suggestion history: %w", err)
	}
	return vals, nil
}

func (h *redisSuggestionHistory) push(ctx context.Context, key, value string, limit int) error {
	if limit <= 0 {
		limit = 5
	}
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, value)
	pipe.LTrim(ctx, key, int64(-limit), -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		h.logger.Error("Failed to update suggestion history", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to update suggestion history: %w", err)
	}
	return nil
}
