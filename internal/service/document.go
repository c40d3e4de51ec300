package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"writingway/internal/interfaces"
	"writingway/internal/mentions"
	"writingway/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentInput - поля нового документа.
type DocumentInput struct {
	Title        string
	Content      string
	DocumentType models.DocumentType
	OrderIndex   int
	ProjectID    uuid.UUID
	ParentID     *uuid.UUID
}

// DocumentService - документы проекта. Доступ определяется владельцем проекта.
type DocumentService interface {
	ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.Document, error)
	Create(ctx context.Context, userID uuid.UUID, in DocumentInput) (*models.Document, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error)
	Update(ctx context.Context, userID, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error)
	// SaveContent сохраняет только текст документа (редактор: авто- и ручное сохранение).
	SaveContent(ctx context.Context, userID, id uuid.UUID, content string, source models.SaveSource) (*models.Document, error)
	Delete(ctx context.Context, userID, id uuid.UUID, permanent bool) error
	// Mentions возвращает записи компендиума, упомянутые в тексте документа.
	Mentions(ctx context.Context, userID, id uuid.UUID) ([]mentions.Mention, error)
}

var _ DocumentService = (*documentService)(nil)

type documentService struct {
	documents  interfaces.DocumentRepository
	projects   interfaces.ProjectRepository
	compendium interfaces.CompendiumRepository
	publisher  interfaces.EventPublisher
	logger     *zap.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	documents interfaces.DocumentRepository,
	projects interfaces.ProjectRepository,
	compendium interfaces.CompendiumRepository,
	publisher interfaces.EventPublisher,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		documents:  documents,
		projects:   projects,
		compendium: compendium,
		publisher:  publisher,
		logger:     logger.Named("DocumentService"),
	}
}

// owned возвращает документ, если его проект принадлежит пользователю.
// Чужой документ неотличим от отсутствующего.
func (s *documentService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.GetByID(ctx, doc.ProjectID, userID); err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			s.logger.Warn("Access to foreign document", zap.Stringer("documentID", id), zap.Stringer("userID", userID))
			return nil, models.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// checkParent проверяет, что родитель существует, лежит в том же проекте и не
// является потомком docID. Для нового документа docID = uuid.Nil.
func (s *documentService) checkParent(ctx context.Context, projectID, docID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == docID {
		return models.ErrInvalidParent
	}
	parent, err := s.documents.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			return models.ErrInvalidParent
		}
		return err
	}
	if parent.ProjectID != projectID {
		return models.ErrInvalidParent
	}
	if docID == uuid.Nil {
		return nil
	}

	seen := map[uuid.UUID]struct{}{parent.ID: {}}
	for cur := parent; ; {
		if cur.ParentID == nil {
			return nil
		}
		if *cur.ParentID == docID {
			return models.ErrInvalidParent
		}
		if _, ok := seen[*cur.ParentID]; ok {
			return nil
		}
		seen[*cur.ParentID] = struct{}{}
		next, err := s.documents.GetByID(ctx, *cur.ParentID)
		if err != nil {
			if errors.Is(err, models.ErrDocumentNotFound) {
				return nil
			}
			return err
		}
		cur = next
	}
}

func (s *documentService) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.Document, error) {
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.documents.ListByProject(ctx, projectID)
}

func (s *documentService) Create(ctx context.Context, userID uuid.UUID, in DocumentInput) (*models.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("document title is required: %w", models.ErrInvalidInput)
	}
	if in.DocumentType == "" {
		in.DocumentType = models.DefaultDocumentType
	}
	if !in.DocumentType.IsValid() {
		return nil, fmt.Errorf("unknown document type %q: %w", in.DocumentType, models.ErrInvalidInput)
	}
	if _, err := s.projects.GetByID(ctx, in.ProjectID, userID); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, in.ProjectID, uuid.Nil, in.ParentID); err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:        title,
		Content:      in.Content,
		DocumentType: in.DocumentType,
		OrderIndex:   in.OrderIndex,
		ProjectID:    in.ProjectID,
		ParentID:     in.ParentID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("Document created", zap.Stringer("documentID", doc.ID), zap.Stringer("projectID", doc.ProjectID))
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	return s.owned(ctx, userID, id)
}

func (s *documentService) Update(ctx context.Context, userID, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error) {
	doc, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("document title cannot be empty: %w", models.ErrInvalidInput)
		}
		upd.Title = &title
	}
	if upd.DocumentType != nil && !upd.DocumentType.IsValid() {
		return nil, fmt.Errorf("unknown document type %q: %w", *upd.DocumentType, models.ErrInvalidInput)
	}
	if upd.ParentID != nil && !upd.ClearParent {
		if err := s.checkParent(ctx, doc.ProjectID, id, upd.ParentID); err != nil {
			return nil, err
		}
	}

	updated, err := s.documents.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Document updated", zap.Stringer("documentID", id))
	if upd.Content != nil {
		s.publishSaved(ctx, userID, updated, models.SaveSourceAPI)
	}
	return updated, nil
}

func (s *documentService) SaveContent(ctx context.Context, userID, id uuid.UUID, content string, source models.SaveSource) (*models.Document, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	doc, err := s.documents.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Document content saved", zap.Stringer("documentID", id), zap.String("source", string(source)))
	s.publishSaved(ctx, userID, doc, source)
	return doc, nil
}

func (s *documentService) publishSaved(ctx context.Context, userID uuid.UUID, doc *models.Document, source models.SaveSource) {
	ev := models.NewDomainEvent(models.EventDocumentSaved, userID, doc.ProjectID)
	docID := doc.ID
	ev.DocumentID = &docID
	ev.Source = source
	publishEvent(ctx, s.publisher, s.logger, ev)
}

func (s *documentService) Delete(ctx context.Context, userID, id uuid.UUID, permanent bool) error {
	doc, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if permanent {
		err = s.documents.Delete(ctx, id)
	} else {
		err = s.documents.SoftDelete(ctx, id)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Document deleted", zap.Stringer("documentID", id), zap.Bool("permanent", permanent))

	ev := models.NewDomainEvent(models.EventDocumentDeleted, userID, doc.ProjectID)
	ev.DocumentID = &id
	ev.Permanent = permanent
	publishEvent(ctx, s.publisher, s.logger, ev)
	return nil
}

func (s *documentService) Mentions(ctx context.Context, userID, id uuid.UUID) ([]mentions.Mention, error) {
	doc, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return projectMentions(ctx, s.compendium, doc.ProjectID, doc.Content)
}

// projectMentions ищет в тексте упоминания записей компендиума проекта.
func projectMentions(ctx context.Context, repo interfaces.CompendiumRepository, projectID uuid.UUID, content string) ([]mentions.Mention, error) {
	entries, err := repo.ListByProject(ctx, projectID, models.CompendiumFilter{})
	if err != nil {
		return nil, err
	}
	scanEntries := make([]mentions.Entry, 0, len(entries))
	for _, e := range entries {
		scanEntries = append(scanEntries, mentions.Entry{ID: e.ID, Title: e.Title, Aliases: e.Aliases})
	}
	scanner, err := mentions.NewScanner(scanEntries)
	if err != nil {
		return nil, err
	}
	return scanner.Scan(content), nil
}
