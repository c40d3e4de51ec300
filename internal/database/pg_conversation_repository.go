package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.ConversationRepository = (*pgConversationRepository)(nil)

const conversationColumns = `id, user_id, project_id, document_id, messages, created_at, updated_at`

type pgConversationRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgConversationRepository создает репозиторий диалогов с ассистентом.
// Сообщения хранятся JSONB-массивом и дописываются оператором ||.
func NewPgConversationRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ConversationRepository {
	return &pgConversationRepository{
		db:     db,
		logger: logger.Named("PgConversationRepo"),
	}
}

func scanConversation(row pgx.Row) (*models.AIConversation, error) {
	c := &models.AIConversation{}
	var raw []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.ProjectID, &c.DocumentID, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Messages = []models.ConversationMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode conversation messages: %w", err)
		}
	}
	return c, nil
}

func (r *pgConversationRepository) Create(ctx context.Context, conv *models.AIConversation) error {
	if conv.Messages == nil {
		conv.Messages = []models.ConversationMessage{}
	}
	raw, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode conversation messages: %w", err)
	}
	query := `INSERT INTO ai_conversations (user_id, project_id, document_id, messages)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", conv.UserID.String()))
	err = r.db.QueryRow(ctx, query, conv.UserID, conv.ProjectID, conv.DocumentID, string(raw)).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create conversation", zap.Error(err), zap.String("userID", conv.UserID.String()))
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *pgConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AIConversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM ai_conversations WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("conversationID", id.String()))
	c, err := scanConversation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConversationNotFound
		}
		r.logger.Error("Failed to get conversation", zap.Error(err), zap.String("conversationID", id.String()))
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return c, nil
}

func (r *pgConversationRepository) FindLatest(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*models.AIConversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM ai_conversations
		WHERE user_id = $1 AND project_id IS NOT DISTINCT FROM $2
		ORDER BY updated_at DESC
		LIMIT 1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))
	c, err := scanConversation(r.db.QueryRow(ctx, query, userID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConversationNotFound
		}
		r.logger.Error("Failed to find conversation", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return c, nil
}

func (r *pgConversationRepository) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM ai_conversations
		WHERE user_id = $1 AND project_id = $2
		ORDER BY updated_at DESC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", projectID.String()))
	rows, err := r.db.Query(ctx, query, userID, projectID)
	if err != nil {
		r.logger.Error("Failed to list conversations", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]models.AIConversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		convs = append(convs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	return convs, nil
}

func (r *pgConversationRepository) AppendMessages(ctx context.Context, id uuid.UUID, msgs ...models.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode conversation messages: %w", err)
	}
	query := `UPDATE ai_conversations SET messages = messages || $2::jsonb, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id, string(raw))
}

func (r *pgConversationRepository) ClearMessages(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE ai_conversations SET messages = '[]'::jsonb, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *pgConversationRepository) exec(ctx context.Context, query string, id uuid.UUID, args ...any) error {
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("conversationID", id.String()))
	tag, err := r.db.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		r.logger.Error("Failed to update conversation", zap.Error(err), zap.String("conversationID", id.String()))
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConversationNotFound
	}
	return nil
}
