package database_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"writingway/internal/database"
	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositoryIntegrationSuite поднимает PostgreSQL и Redis в контейнерах и прогоняет миграции.
type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	users         interfaces.UserRepository
	projects      interfaces.ProjectRepository
	documents     interfaces.DocumentRepository
	compendium    interfaces.CompendiumRepository
	settings      interfaces.SettingsRepository
	conversations interfaces.ConversationRepository
	tokens        interfaces.TokenRepository
	history       interfaces.SuggestionHistory
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = zap.NewNop()

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("writingway_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start postgres container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.pool, err = pgxpool.New(s.ctx, connStr)
	s.Require().NoError(err)
	s.Require().NoError(database.ApplyMigrations(s.ctx, s.pool, s.logger), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start redis container")
	host, err := s.rdContainer.Host(s.ctx)
	s.Require().NoError(err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	s.Require().NoError(err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.Require().NoError(s.redisClient.Ping(s.ctx).Err())

	s.users = database.NewPgUserRepository(s.pool, s.logger)
	s.projects = database.NewPgProjectRepository(s.pool, s.logger)
	s.documents = database.NewPgDocumentRepository(s.pool, s.logger)
	s.compendium = database.NewPgCompendiumRepository(s.pool, s.logger)
	s.settings = database.NewPgSettingsRepository(s.pool, s.logger)
	s.conversations = database.NewPgConversationRepository(s.pool, s.logger)
	s.tokens = database.NewRedisTokenRepository(s.redisClient, s.logger)
	s.history = database.NewRedisSuggestionHistory(s.redisClient, time.Minute, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы перед каждым тестом
func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE users, projects, documents, compendium_entries, user_settings, ai_conversations RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
	s.Require().NoError(s.redisClient.FlushDB(s.ctx).Err())
}

func (s *RepositoryIntegrationSuite) createUser(name string) *models.User {
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "hash", IsActive: true}
	s.Require().NoError(s.users.CreateUser(s.ctx, u))
	return u
}

func (s *RepositoryIntegrationSuite) createProject(owner uuid.UUID, name string) *models.Project {
	p := &models.Project{Name: name, OwnerID: owner}
	s.Require().NoError(s.projects.Create(s.ctx, p))
	return p
}

func (s *RepositoryIntegrationSuite) TestMigrations_Idempotent() {
	m := database.NewMigrator(s.logger)

	v, dirty, err := m.Version(s.ctx, s.pool)
	s.Require().NoError(err)
	s.False(dirty)
	s.EqualValues(1, v)

	res, err := m.Up(s.ctx, s.pool)
	s.Require().NoError(err)
	s.False(res.Applied())
	s.EqualValues(1, res.To)
}

func (s *RepositoryIntegrationSuite) TestUsers_DuplicateDetection() {
	s.createUser("alice")

	err := s.users.CreateUser(s.ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", IsActive: true})
	s.ErrorIs(err, models.ErrUserAlreadyExists)

	err = s.users.CreateUser(s.ctx, &models.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x", IsActive: true})
	s.ErrorIs(err, models.ErrEmailAlreadyExists)

	_, err = s.users.GetUserByUsername(s.ctx, "nobody")
	s.ErrorIs(err, models.ErrUserNotFound)
}

func (s *RepositoryIntegrationSuite) TestUsers_UpdateProfile() {
	u := s.createUser("carol")
	name := "Carol Writer"
	group := "upper_primary"
	birth := time.Date(2014, 5, 1, 0, 0, 0, 0, time.UTC)

	updated, err := s.users.UpdateProfile(s.ctx, u.ID, models.UserProfileUpdate{FullName: &name, AgeGroup: &group, BirthDate: &birth})
	s.Require().NoError(err)
	s.Equal(name, updated.FullName)
	s.Require().NotNil(updated.AgeGroup)
	s.Equal(group, *updated.AgeGroup)
	s.Require().NotNil(updated.BirthDate)
	s.Equal(2014, updated.BirthDate.Year())

	s.Require().NoError(s.users.SetActive(s.ctx, u.ID, false))
	got, err := s.users.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)
}

func (s *RepositoryIntegrationSuite) TestProjects_OwnerScopingAndSoftDelete() {
	owner := s.createUser("owner")
	other := s.createUser("other")
	p := s.createProject(owner.ID, "Demo")

	_, err := s.projects.GetByID(s.ctx, p.ID, other.ID)
	s.ErrorIs(err, models.ErrProjectNotFound)

	list, err := s.projects.ListByOwner(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.projects.SoftDelete(s.ctx, p.ID, owner.ID))
	list, err = s.projects.ListByOwner(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Empty(list)

	_, err = s.projects.GetByID(s.ctx, p.ID, owner.ID)
	s.ErrorIs(err, models.ErrProjectNotFound)
}

func (s *RepositoryIntegrationSuite) TestProjects_HardDeleteCascades() {
	owner := s.createUser("cascade")
	p := s.createProject(owner.ID, "Cascade")

	doc := &models.Document{Title: "Ch1", Content: "Hello", ProjectID: p.ID}
	s.Require().NoError(s.documents.Create(s.ctx, doc))
	entry := &models.CompendiumEntry{ProjectID: p.ID, Title: "Hero"}
	s.Require().NoError(s.compendium.Create(s.ctx, entry))
	conv := &models.AIConversation{UserID: owner.ID, ProjectID: &p.ID}
	s.Require().NoError(s.conversations.Create(s.ctx, conv))

	s.Require().NoError(s.projects.Delete(s.ctx, p.ID, owner.ID))

	_, err := s.documents.GetByID(s.ctx, doc.ID)
	s.ErrorIs(err, models.ErrDocumentNotFound)
	_, err = s.compendium.GetByID(s.ctx, entry.ID)
	s.ErrorIs(err, models.ErrCompendiumEntryNotFound)
	_, err = s.conversations.GetByID(s.ctx, conv.ID)
	s.ErrorIs(err, models.ErrConversationNotFound)
}

func (s *RepositoryIntegrationSuite) TestDocuments_ParentDeleteNullsChildren() {
	owner := s.createUser("tree")
	p := s.createProject(owner.ID, "Tree")

	parent := &models.Document{Title: "Part", ProjectID: p.ID, DocumentType: models.DocumentTypeChapter}
	s.Require().NoError(s.documents.Create(s.ctx, parent))
	child := &models.Document{Title: "Scene", ProjectID: p.ID, ParentID: &parent.ID, OrderIndex: 1}
	s.Require().NoError(s.documents.Create(s.ctx, child))
	s.Equal(models.DocumentTypeScene, child.DocumentType)

	s.Require().NoError(s.documents.Delete(s.ctx, parent.ID))

	got, err := s.documents.GetByID(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Nil(got.ParentID)
}

func (s *RepositoryIntegrationSuite) TestDocuments_OrderingAndPartialUpdate() {
	owner := s.createUser("order")
	p := s.createProject(owner.ID, "Order")
	for i, title := range []string{"Third", "First", "Second"} {
		idx := []int{2, 0, 1}[i]
		s.Require().NoError(s.documents.Create(s.ctx, &models.Document{Title: title, ProjectID: p.ID, OrderIndex: idx}))
	}

	docs, err := s.documents.ListByProject(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	s.Equal([]string{"First", "Second", "Third"}, []string{docs[0].Title, docs[1].Title, docs[2].Title})

	content := "<p>Updated</p>"
	updated, err := s.documents.Update(s.ctx, docs[0].ID, models.DocumentUpdate{Content: &content})
	s.Require().NoError(err)
	s.Equal("First", updated.Title)
	s.Equal(content, updated.Content)

	saved, err := s.documents.UpdateContent(s.ctx, docs[0].ID, "<p>Autosaved</p>")
	s.Require().NoError(err)
	s.Equal("<p>Autosaved</p>", saved.Content)
}

func (s *RepositoryIntegrationSuite) TestDocuments_SelfParentRejected() {
	owner := s.createUser("selfparent")
	p := s.createProject(owner.ID, "Self")
	doc := &models.Document{Title: "Loop", ProjectID: p.ID}
	s.Require().NoError(s.documents.Create(s.ctx, doc))

	_, err := s.documents.Update(s.ctx, doc.ID, models.DocumentUpdate{ParentID: &doc.ID})
	s.ErrorIs(err, models.ErrInvalidParent)
}

func (s *RepositoryIntegrationSuite) TestCompendium_Filters() {
	owner := s.createUser("lore")
	p := s.createProject(owner.ID, "Lore")
	s.Require().NoError(s.compendium.Create(s.ctx, &models.CompendiumEntry{ProjectID: p.ID, Title: "Aria", EntryType: "character", Tags: []string{"main"}}))
	s.Require().NoError(s.compendium.Create(s.ctx, &models.CompendiumEntry{ProjectID: p.ID, Title: "Castle", EntryType: "location", Tags: []string{"main", "north"}}))

	all, err := s.compendium.ListByProject(s.ctx, p.ID, models.CompendiumFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	chars, err := s.compendium.ListByProject(s.ctx, p.ID, models.CompendiumFilter{EntryType: "character"})
	s.Require().NoError(err)
	s.Require().Len(chars, 1)
	s.Equal("Aria", chars[0].Title)

	north, err := s.compendium.ListByProject(s.ctx, p.ID, models.CompendiumFilter{Tag: "north"})
	s.Require().NoError(err)
	s.Require().Len(north, 1)
	s.Equal("Castle", north[0].Title)

	updated, err := s.compendium.Update(s.ctx, north[0].ID, models.CompendiumUpdate{Aliases: []string{"the Keep"}})
	s.Require().NoError(err)
	s.Equal([]string{"main", "north"}, updated.Tags)
	s.Equal([]string{"the Keep"}, updated.Aliases)
}

func (s *RepositoryIntegrationSuite) TestSettings_Upsert() {
	u := s.createUser("settings")
	_, err := s.settings.GetByUserID(s.ctx, u.ID)
	s.ErrorIs(err, models.ErrNotFound)

	st := models.NewDefaultSettings(u.ID)
	s.Require().NoError(s.settings.Upsert(s.ctx, st))

	st.Theme = "dark"
	st.AISettings = json.RawMessage(`{"provider":"gemini"}`)
	s.Require().NoError(s.settings.Upsert(s.ctx, st))

	got, err := s.settings.GetByUserID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("dark", got.Theme)
	s.Equal(models.DefaultFontSize, got.FontSize)
	s.JSONEq(`{"provider":"gemini"}`, string(got.AISettings))
}

func (s *RepositoryIntegrationSuite) TestConversations_AppendAndClear() {
	u := s.createUser("chatter")
	p := s.createProject(u.ID, "Chat")
	conv := &models.AIConversation{UserID: u.ID, ProjectID: &p.ID}
	s.Require().NoError(s.conversations.Create(s.ctx, conv))

	now := time.Now().UTC()
	s.Require().NoError(s.conversations.AppendMessages(s.ctx, conv.ID,
		models.ConversationMessage{Role: models.RoleUser, Content: "hi", Timestamp: now},
		models.ConversationMessage{Role: models.RoleAssistant, Content: "hello", Timestamp: now},
	))
	s.Require().NoError(s.conversations.AppendMessages(s.ctx, conv.ID,
		models.ConversationMessage{Role: models.RoleUser, Content: "again", Timestamp: now},
	))

	latest, err := s.conversations.FindLatest(s.ctx, u.ID, &p.ID)
	s.Require().NoError(err)
	s.Require().Len(latest.Messages, 3)
	s.Equal("again", latest.Messages[2].Content)

	s.Require().NoError(s.conversations.ClearMessages(s.ctx, conv.ID))
	list, err := s.conversations.ListByProject(s.ctx, u.ID, p.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Empty(list[0].Messages)
}

func (s *RepositoryIntegrationSuite) TestTokens_SetGetDelete() {
	userID := uuid.New()
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   time.Now().Add(time.Minute).Unix(),
		RtExpires:   time.Now().Add(time.Hour).Unix(),
	}
	s.Require().NoError(s.tokens.SetToken(s.ctx, userID, td))

	got, err := s.tokens.GetUserIDByAccessUUID(s.ctx, td.AccessUUID)
	s.Require().NoError(err)
	s.Equal(userID, got)

	deleted, err := s.tokens.DeleteTokensByUserID(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	_, err = s.tokens.GetUserIDByRefreshUUID(s.ctx, td.RefreshUUID)
	s.ErrorIs(err, models.ErrTokenNotFound)
}

func (s *RepositoryIntegrationSuite) TestSuggestionHistory_TrimsToLimit() {
	for _, t := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		s.Require().NoError(s.history.PushType(s.ctx, "session-1", t, 5))
	}
	types, err := s.history.RecentTypes(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Equal([]string{"c", "d", "e", "f", "g"}, types)

	empty, err := s.history.RecentAISuggestions(s.ctx, "unknown")
	s.Require().NoError(err)
	s.Empty(empty)
}
