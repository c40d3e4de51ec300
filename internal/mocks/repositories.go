package mocks

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.UserProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// Mock ProjectRepository
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}
func (m *ProjectRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id, ownerID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}
func (m *ProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, ownerID)
	ps, _ := args.Get(0).([]models.Project)
	return ps, args.Error(1)
}
func (m *ProjectRepository) Update(ctx context.Context, id, ownerID uuid.UUID, upd models.ProjectUpdate) (*models.Project, error) {
	args := m.Called(ctx, id, ownerID, upd)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}
func (m *ProjectRepository) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}
func (m *ProjectRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// Mock DocumentRepository
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
func (m *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error) {
	args := m.Called(ctx, projectID)
	ds, _ := args.Get(0).([]models.Document)
	return ds, args.Error(1)
}
func (m *DocumentRepository) Update(ctx context.Context, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error) {
	args := m.Called(ctx, id, upd)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.Document, error) {
	args := m.Called(ctx, id, content)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}
func (m *DocumentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock CompendiumRepository
type CompendiumRepository struct {
	mock.Mock
}

func (m *CompendiumRepository) Create(ctx context.Context, entry *models.CompendiumEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *CompendiumRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CompendiumEntry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumRepository) ListByProject(ctx context.Context, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error) {
	args := m.Called(ctx, projectID, filter)
	es, _ := args.Get(0).([]models.CompendiumEntry)
	return es, args.Error(1)
}
func (m *CompendiumRepository) Update(ctx context.Context, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error) {
	args := m.Called(ctx, id, upd)
	e, _ := args.Get(0).(*models.CompendiumEntry)
	return e, args.Error(1)
}
func (m *CompendiumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock ConversationRepository
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Create(ctx context.Context, conv *models.AIConversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}
func (m *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AIConversation, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.AIConversation)
	return c, args.Error(1)
}
func (m *ConversationRepository) FindLatest(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*models.AIConversation, error) {
	args := m.Called(ctx, userID, projectID)
	c, _ := args.Get(0).(*models.AIConversation)
	return c, args.Error(1)
}
func (m *ConversationRepository) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error) {
	args := m.Called(ctx, userID, projectID)
	cs, _ := args.Get(0).([]models.AIConversation)
	return cs, args.Error(1)
}

// AppendMessages передаёт msgs в Called одним срезом.
func (m *ConversationRepository) AppendMessages(ctx context.Context, id uuid.UUID, msgs ...models.ConversationMessage) error {
	args := m.Called(ctx, id, msgs)
	return args.Error(0)
}
func (m *ConversationRepository) ClearMessages(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SettingsRepository
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.UserSettings)
	return s, args.Error(1)
}
func (m *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}
