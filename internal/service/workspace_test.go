package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"writingway/internal/mocks"
	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProjectService(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Create trims name", func(t *testing.T) {
		repo := new(mocks.ProjectRepository)
		svc := service.NewProjectService(repo, nil, zap.NewNop())
		repo.On("Create", ctx, mock.MatchedBy(func(p *models.Project) bool {
			return p.Name == "Demo" && p.OwnerID == ownerID
		})).Return(nil).Once()

		p, err := svc.Create(ctx, ownerID, service.ProjectInput{Name: "  Demo "})
		require.NoError(t, err)
		assert.Equal(t, "Demo", p.Name)
		repo.AssertExpectations(t)
	})

	t.Run("Create without name", func(t *testing.T) {
		repo := new(mocks.ProjectRepository)
		svc := service.NewProjectService(repo, nil, zap.NewNop())
		_, err := svc.Create(ctx, ownerID, service.ProjectInput{Name: "   "})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Permanent delete publishes event", func(t *testing.T) {
		repo := new(mocks.ProjectRepository)
		pub := new(mocks.EventPublisher)
		svc := service.NewProjectService(repo, pub, zap.NewNop())
		projectID := uuid.New()

		repo.On("Delete", ctx, projectID, ownerID).Return(nil).Once()
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.DomainEvent) bool {
			return ev.Type == models.EventProjectDeleted && ev.ProjectID == projectID && ev.Permanent
		})).Return(nil).Once()

		require.NoError(t, svc.Delete(ctx, ownerID, projectID, true))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("Soft delete of foreign project", func(t *testing.T) {
		repo := new(mocks.ProjectRepository)
		pub := new(mocks.EventPublisher)
		svc := service.NewProjectService(repo, pub, zap.NewNop())
		projectID := uuid.New()

		repo.On("SoftDelete", ctx, projectID, ownerID).Return(models.ErrProjectNotFound).Once()

		err := svc.Delete(ctx, ownerID, projectID, false)
		assert.ErrorIs(t, err, models.ErrProjectNotFound)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Broker failure does not fail delete", func(t *testing.T) {
		repo := new(mocks.ProjectRepository)
		pub := new(mocks.EventPublisher)
		svc := service.NewProjectService(repo, pub, zap.NewNop())
		projectID := uuid.New()

		repo.On("SoftDelete", ctx, projectID, ownerID).Return(nil).Once()
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		assert.NoError(t, svc.Delete(ctx, ownerID, projectID, false))
	})
}

type documentFixture struct {
	docs       *mocks.DocumentRepository
	projects   *mocks.ProjectRepository
	compendium *mocks.CompendiumRepository
	pub        *mocks.EventPublisher
	svc        service.DocumentService
	userID     uuid.UUID
	project    *models.Project
}

func newDocumentFixture(t *testing.T) *documentFixture {
	f := &documentFixture{
		docs:       new(mocks.DocumentRepository),
		projects:   new(mocks.ProjectRepository),
		compendium: new(mocks.CompendiumRepository),
		pub:        new(mocks.EventPublisher),
		userID:     uuid.New(),
	}
	f.project = &models.Project{ID: uuid.New(), Name: "Demo", OwnerID: f.userID, IsActive: true}
	f.svc = service.NewDocumentService(f.docs, f.projects, f.compendium, f.pub, zap.NewNop())
	f.projects.On("GetByID", mock.Anything, f.project.ID, f.userID).Return(f.project, nil).Maybe()
	t.Cleanup(func() {
		f.docs.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})
	return f
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults document type", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.docs.On("Create", ctx, mock.MatchedBy(func(d *models.Document) bool {
			return d.Title == "Ch1" && d.Content == "Hello" && d.DocumentType == models.DefaultDocumentType
		})).Return(nil).Once()

		doc, err := f.svc.Create(ctx, f.userID, service.DocumentInput{Title: "Ch1", Content: "Hello", ProjectID: f.project.ID})
		require.NoError(t, err)
		assert.Equal(t, f.project.ID, doc.ProjectID)
	})

	t.Run("Unknown document type", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.Create(ctx, f.userID, service.DocumentInput{Title: "X", DocumentType: "poem", ProjectID: f.project.ID})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Parent from another project", func(t *testing.T) {
		f := newDocumentFixture(t)
		parentID := uuid.New()
		f.docs.On("GetByID", ctx, parentID).Return(&models.Document{ID: parentID, ProjectID: uuid.New()}, nil).Once()

		_, err := f.svc.Create(ctx, f.userID, service.DocumentInput{Title: "X", ProjectID: f.project.ID, ParentID: &parentID})
		assert.ErrorIs(t, err, models.ErrInvalidParent)
	})

	t.Run("Foreign project", func(t *testing.T) {
		f := newDocumentFixture(t)
		other := uuid.New()
		f.projects.On("GetByID", ctx, other, f.userID).Return(nil, models.ErrProjectNotFound).Once()

		_, err := f.svc.Create(ctx, f.userID, service.DocumentInput{Title: "X", ProjectID: other})
		assert.ErrorIs(t, err, models.ErrProjectNotFound)
	})
}

func TestDocumentService_Access(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture(t)
	foreignProject := uuid.New()
	docID := uuid.New()

	f.docs.On("GetByID", ctx, docID).Return(&models.Document{ID: docID, ProjectID: foreignProject}, nil).Once()
	f.projects.On("GetByID", ctx, foreignProject, f.userID).Return(nil, models.ErrProjectNotFound).Once()

	_, err := f.svc.Get(ctx, f.userID, docID)
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Self parent", func(t *testing.T) {
		f := newDocumentFixture(t)
		docID := uuid.New()
		f.docs.On("GetByID", ctx, docID).Return(&models.Document{ID: docID, ProjectID: f.project.ID}, nil).Once()

		_, err := f.svc.Update(ctx, f.userID, docID, models.DocumentUpdate{ParentID: &docID})
		assert.ErrorIs(t, err, models.ErrInvalidParent)
	})

	t.Run("Descendant as parent", func(t *testing.T) {
		f := newDocumentFixture(t)
		// a -> b -> c, перенос a под c замкнул бы цикл
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		f.docs.On("GetByID", ctx, a).Return(&models.Document{ID: a, ProjectID: f.project.ID}, nil).Once()
		f.docs.On("GetByID", ctx, c).Return(&models.Document{ID: c, ProjectID: f.project.ID, ParentID: &b}, nil).Once()
		f.docs.On("GetByID", ctx, b).Return(&models.Document{ID: b, ProjectID: f.project.ID, ParentID: &a}, nil).Once()

		_, err := f.svc.Update(ctx, f.userID, a, models.DocumentUpdate{ParentID: &c})
		assert.ErrorIs(t, err, models.ErrInvalidParent)
		f.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Move under unrelated branch", func(t *testing.T) {
		f := newDocumentFixture(t)
		docID, parentID, rootID := uuid.New(), uuid.New(), uuid.New()
		f.docs.On("GetByID", ctx, docID).Return(&models.Document{ID: docID, ProjectID: f.project.ID}, nil).Once()
		f.docs.On("GetByID", ctx, parentID).Return(&models.Document{ID: parentID, ProjectID: f.project.ID, ParentID: &rootID}, nil).Once()
		f.docs.On("GetByID", ctx, rootID).Return(&models.Document{ID: rootID, ProjectID: f.project.ID}, nil).Once()
		f.docs.On("Update", ctx, docID, mock.MatchedBy(func(u models.DocumentUpdate) bool {
			return u.ParentID != nil && *u.ParentID == parentID
		})).Return(&models.Document{ID: docID, ProjectID: f.project.ID, ParentID: &parentID}, nil).Once()

		updated, err := f.svc.Update(ctx, f.userID, docID, models.DocumentUpdate{ParentID: &parentID})
		require.NoError(t, err)
		assert.Equal(t, &parentID, updated.ParentID)
	})

	t.Run("Content change publishes api save", func(t *testing.T) {
		f := newDocumentFixture(t)
		docID := uuid.New()
		content := "<p>New text</p>"
		doc := &models.Document{ID: docID, ProjectID: f.project.ID}
		f.docs.On("GetByID", ctx, docID).Return(doc, nil).Once()
		f.docs.On("Update", ctx, docID, mock.Anything).Return(&models.Document{ID: docID, ProjectID: f.project.ID, Content: content}, nil).Once()
		f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.DomainEvent) bool {
			return ev.Type == models.EventDocumentSaved && ev.Source == models.SaveSourceAPI &&
				ev.DocumentID != nil && *ev.DocumentID == docID
		})).Return(nil).Once()

		updated, err := f.svc.Update(ctx, f.userID, docID, models.DocumentUpdate{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, content, updated.Content)
	})

	t.Run("Title only does not publish", func(t *testing.T) {
		f := newDocumentFixture(t)
		docID := uuid.New()
		title := "Renamed"
		f.docs.On("GetByID", ctx, docID).Return(&models.Document{ID: docID, ProjectID: f.project.ID}, nil).Once()
		f.docs.On("Update", ctx, docID, mock.Anything).Return(&models.Document{ID: docID, Title: title}, nil).Once()

		_, err := f.svc.Update(ctx, f.userID, docID, models.DocumentUpdate{Title: &title})
		require.NoError(t, err)
		f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_SaveContent(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture(t)
	docID := uuid.New()

	f.docs.On("GetByID", ctx, docID).Return(&models.Document{ID: docID, ProjectID: f.project.ID}, nil).Once()
	f.docs.On("UpdateContent", ctx, docID, "draft").Return(&models.Document{ID: docID, ProjectID: f.project.ID, Content: "draft"}, nil).Once()
	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.DomainEvent) bool {
		return ev.Source == models.SaveSourceManual
	})).Return(nil).Once()

	doc, err := f.svc.SaveContent(ctx, f.userID, docID, "draft", models.SaveSourceManual)
	require.NoError(t, err)
	assert.Equal(t, "draft", doc.Content)
}

func TestDocumentService_Mentions(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture(t)
	docID := uuid.New()
	aliceID := uuid.New()

	f.docs.On("GetByID", ctx, docID).Return(&models.Document{
		ID: docID, ProjectID: f.project.ID,
		Content: "<p>Alice met the Queen. Alicent stayed home. alice laughed.</p>",
	}, nil).Once()
	f.compendium.On("ListByProject", ctx, f.project.ID, models.CompendiumFilter{}).Return([]models.CompendiumEntry{
		{ID: aliceID, Title: "Alice"},
		{ID: uuid.New(), Title: "Dragon", Aliases: []string{"Wyrm"}},
	}, nil).Once()

	found, err := f.svc.Mentions(ctx, f.userID, docID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, aliceID, found[0].EntryID)
	assert.Equal(t, 2, found[0].Count)
}

func TestCompendiumService(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	projectID := uuid.New()

	t.Run("Create cleans tags and aliases", func(t *testing.T) {
		entries := new(mocks.CompendiumRepository)
		projects := new(mocks.ProjectRepository)
		svc := service.NewCompendiumService(entries, projects, zap.NewNop())

		projects.On("GetByID", ctx, projectID, userID).Return(&models.Project{ID: projectID}, nil).Once()
		entries.On("Create", ctx, mock.MatchedBy(func(e *models.CompendiumEntry) bool {
			return e.EntryType == "general" &&
				assert.ObjectsAreEqual([]string{"hero", "Royal"}, e.Tags) &&
				assert.ObjectsAreEqual([]string{"Al"}, e.Aliases)
		})).Return(nil).Once()

		_, err := svc.Create(ctx, userID, service.CompendiumInput{
			ProjectID: projectID,
			Title:     "Alice",
			Tags:      []string{"hero", " ", "HERO", "Royal"},
			Aliases:   []string{"Al", "al "},
		})
		require.NoError(t, err)
		entries.AssertExpectations(t)
	})

	t.Run("Foreign entry is not found", func(t *testing.T) {
		entries := new(mocks.CompendiumRepository)
		projects := new(mocks.ProjectRepository)
		svc := service.NewCompendiumService(entries, projects, zap.NewNop())
		entryID := uuid.New()

		entries.On("GetByID", ctx, entryID).Return(&models.CompendiumEntry{ID: entryID, ProjectID: projectID}, nil).Once()
		projects.On("GetByID", ctx, projectID, userID).Return(nil, models.ErrProjectNotFound).Once()

		err := svc.Delete(ctx, userID, entryID)
		assert.ErrorIs(t, err, models.ErrCompendiumEntryNotFound)
		entries.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Get creates defaults", func(t *testing.T) {
		repo := new(mocks.SettingsRepository)
		svc := service.NewSettingsService(repo, zap.NewNop())
		repo.On("GetByUserID", ctx, userID).Return(nil, models.ErrNotFound).Once()
		repo.On("Upsert", ctx, mock.AnythingOfType("*models.UserSettings")).Return(nil).Once()

		s, err := svc.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultFontSize, s.FontSize)
		assert.True(t, s.AutoSave)
		repo.AssertExpectations(t)
	})

	t.Run("Font size out of range", func(t *testing.T) {
		repo := new(mocks.SettingsRepository)
		svc := service.NewSettingsService(repo, zap.NewNop())
		size := 72
		_, err := svc.Update(ctx, userID, models.SettingsUpdate{FontSize: &size})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("AI settings must be an object", func(t *testing.T) {
		repo := new(mocks.SettingsRepository)
		svc := service.NewSettingsService(repo, zap.NewNop())
		_, err := svc.Update(ctx, userID, models.SettingsUpdate{AISettings: json.RawMessage(`[1,2]`)})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Partial update keeps other fields", func(t *testing.T) {
		repo := new(mocks.SettingsRepository)
		svc := service.NewSettingsService(repo, zap.NewNop())
		current := models.NewDefaultSettings(userID)
		current.Language = "ru"
		theme := "dark"
		repo.On("GetByUserID", ctx, userID).Return(current, nil).Once()
		repo.On("Upsert", ctx, mock.MatchedBy(func(s *models.UserSettings) bool {
			return s.Theme == "dark" && s.Language == "ru"
		})).Return(nil).Once()

		s, err := svc.Update(ctx, userID, models.SettingsUpdate{Theme: &theme})
		require.NoError(t, err)
		assert.Equal(t, "dark", s.Theme)
		repo.AssertExpectations(t)
	})
}
