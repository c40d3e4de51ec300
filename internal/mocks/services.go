package mocks

import (
	"context"

	"writingway/internal/mentions"
	"writingway/internal/models"
	"writingway/internal/service"
	"writingway/internal/suggestions"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock AuthService
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *AuthService) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	args := m.Called(ctx, username, password)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}
func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}
func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error {
	args := m.Called(ctx, userID, accessUUID, refreshToken)
	return args.Error(0)
}
func (m *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *AuthService) Deactivate(ctx context.Context, userID uuid.UUID, password string) error {
	args := m.Called(ctx, userID, password)
	return args.Error(0)
}
func (m *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	c, _ := args.Get(0).(*models.Claims)
	return c, args.Error(1)
}
func (m *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.UserProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// Mock ProjectService
type ProjectService struct {
	mock.Mock
}

func (m *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, in service.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, ownerID, in)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}
func (m *ProjectService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, ownerID)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Error(1)
}
func (m *ProjectService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, ownerID, id)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}
func (m *ProjectService) Update(ctx context.Context, ownerID, id uuid.UUID, upd models.ProjectUpdate) (*models.Project, error) {
	args := m.Called(ctx, ownerID, id, upd)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}
func (m *ProjectService) Delete(ctx context.Context, ownerID, id uuid.UUID, permanent bool) error {
	args := m.Called(ctx, ownerID, id, permanent)
	return args.Error(0)
}

// Mock DocumentService
type DocumentService struct {
	mock.Mock
}

func (m *DocumentService) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.Document, error) {
	args := m.Called(ctx, userID, projectID)
	d, _ := args.Get(0).([]models.Document)
	return d, args.Error(1)
}
func (m *DocumentService) Create(ctx context.Context, userID uuid.UUID, in service.DocumentInput) (*models.Document, error) {
	args := m.Called(ctx, userID, in)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, userID, id)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentService) Update(ctx context.Context, userID, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error) {
	args := m.Called(ctx, userID, id, upd)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentService) SaveContent(ctx context.Context, userID, id uuid.UUID, content string, source models.SaveSource) (*models.Document, error) {
	args := m.Called(ctx, userID, id, content, source)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentService) Delete(ctx context.Context, userID, id uuid.UUID, permanent bool) error {
	args := m.Called(ctx, userID, id, permanent)
	return args.Error(0)
}
func (m *DocumentService) Mentions(ctx context.Context, userID, id uuid.UUID) ([]mentions.Mention, error) {
	args := m.Called(ctx, userID, id)
	ms, _ := args.Get(0).([]mentions.Mention)
	return ms, args.Error(1)
}

// Mock CompendiumService
type CompendiumService struct {
	mock.Mock
}

func (m *CompendiumService) List(ctx context.Context, userID, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error) {
	args := m.Called(ctx, userID, projectID, filter)
	e, _ := args.Get(0).([]models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumService) Create(ctx context.Context, userID uuid.UUID, in service.CompendiumInput) (*models.CompendiumEntry, error) {
	args := m.Called(ctx, userID, in)
	e, _ := args.Get(0).(*models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumService) Get(ctx context.Context, userID, id uuid.UUID) (*models.CompendiumEntry, error) {
	args := m.Called(ctx, userID, id)
	e, _ := args.Get(0).(*models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumService) Update(ctx context.Context, userID, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error) {
	args := m.Called(ctx, userID, id, upd)
	e, _ := args.Get(0).(*models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// Mock SettingsService
type SettingsService struct {
	mock.Mock
}

func (m *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.UserSettings)
	return s, args.Error(1)
}
func (m *SettingsService) Update(ctx context.Context, userID uuid.UUID, upd models.SettingsUpdate) (*models.UserSettings, error) {
	args := m.Called(ctx, userID, upd)
	s, _ := args.Get(0).(*models.UserSettings)
	return s, args.Error(1)
}

// Mock AssistantService
type AssistantService struct {
	mock.Mock
}

func (m *AssistantService) WritingAssistance(ctx context.Context, user *models.User, in service.WritingAssistanceInput) (*service.WritingAssistanceResult, error) {
	args := m.Called(ctx, user, in)
	r, _ := args.Get(0).(*service.WritingAssistanceResult)
	return r, args.Error(1)
}
func (m *AssistantService) Chat(ctx context.Context, userID uuid.UUID, in service.ChatInput) (*service.ChatResult, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(*service.ChatResult)
	return r, args.Error(1)
}

// ChatStream: фрагменты для onChunk передаются третьим значением Return ([]string).
func (m *AssistantService) ChatStream(ctx context.Context, userID uuid.UUID, in service.ChatInput, onChunk func(string) error) (*service.ChatResult, error) {
	args := m.Called(ctx, userID, in)
	if len(args) > 2 {
		chunks, _ := args.Get(2).([]string)
		for _, c := range chunks {
			if err := onChunk(c); err != nil {
				return nil, err
			}
		}
	}
	r, _ := args.Get(0).(*service.ChatResult)
	return r, args.Error(1)
}
func (m *AssistantService) ListConversations(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error) {
	args := m.Called(ctx, userID, projectID)
	c, _ := args.Get(0).([]models.AIConversation)
	return c, args.Error(1)
}
func (m *AssistantService) ClearConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	args := m.Called(ctx, userID, conversationID)
	return args.Error(0)
}

// Mock ExportService
type ExportService struct {
	mock.Mock
}

func (m *ExportService) Export(ctx context.Context, userID, projectID uuid.UUID, format service.ExportFormat) (*service.ExportResult, error) {
	args := m.Called(ctx, userID, projectID, format)
	r, _ := args.Get(0).(*service.ExportResult)
	return r, args.Error(1)
}

// Mock Suggester
type Suggester struct {
	mock.Mock
}

func (m *Suggester) Analyze(ctx context.Context, req suggestions.Request) suggestions.Response {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(suggestions.Response)
	return r
}
