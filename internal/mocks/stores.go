package mocks

import (
	"context"

	"writingway/internal/ai"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}
func (m *TokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *TokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *TokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, event models.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *EventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock SuggestionHistory
type SuggestionHistory struct {
	mock.Mock
}

func (m *SuggestionHistory) RecentTypes(ctx context.Context, sessionID string) ([]string, error) {
	args := m.Called(ctx, sessionID)
	v, _ := args.Get(0).([]string)
	return v, args.Error(1)
}
func (m *SuggestionHistory) PushType(ctx context.Context, sessionID, suggestionType string, limit int) error {
	args := m.Called(ctx, sessionID, suggestionType, limit)
	return args.Error(0)
}
func (m *SuggestionHistory) RecentAISuggestions(ctx context.Context, sessionID string) ([]string, error) {
	args := m.Called(ctx, sessionID)
	v, _ := args.Get(0).([]string)
	return v, args.Error(1)
}
func (m *SuggestionHistory) PushAISuggestion(ctx context.Context, sessionID, text string, limit int) error {
	args := m.Called(ctx, sessionID, text, limit)
	return args.Error(0)
}

// Mock AIGenerator. MockGenerator() возвращает настоящий детерминированный генератор.
type AIGenerator struct {
	mock.Mock
	MockGen *ai.MockGenerator
}

func (m *AIGenerator) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(ai.Response)
	return resp, args.Error(1)
}

// Stream отдаёт Text ответа в onChunk одним фрагментом.
func (m *AIGenerator) Stream(ctx context.Context, req ai.Request, onChunk func(string) error) (ai.Response, error) {
	args := m.Called(ctx, req, onChunk)
	resp, _ := args.Get(0).(ai.Response)
	if resp.Text != "" && args.Error(1) == nil {
		if err := onChunk(resp.Text); err != nil {
			return ai.Response{}, err
		}
	}
	return resp, args.Error(1)
}
func (m *AIGenerator) MockGenerator() *ai.MockGenerator {
	if m.MockGen == nil {
		m.MockGen = ai.NewMockGenerator()
	}
	return m.MockGen
}
