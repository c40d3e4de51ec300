package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultEntryType = "general"

// CompendiumInput - поля новой записи.
type CompendiumInput struct {
	ProjectID uuid.UUID
	Title     string
	Content   string
	EntryType string
	Tags      []string
	Aliases   []string
}

// CompendiumService - справочник проекта.
type CompendiumService interface {
	List(ctx context.Context, userID, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error)
	Create(ctx context.Context, userID uuid.UUID, in CompendiumInput) (*models.CompendiumEntry, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.CompendiumEntry, error)
	Update(ctx context.Context, userID, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

var _ CompendiumService = (*compendiumService)(nil)

type compendiumService struct {
	entries  interfaces.CompendiumRepository
	projects interfaces.ProjectRepository
	logger   *zap.Logger
}

// NewCompendiumService creates a new CompendiumService.
func NewCompendiumService(entries interfaces.CompendiumRepository, projects interfaces.ProjectRepository, logger *zap.Logger) CompendiumService {
	return &compendiumService{
		entries:  entries,
		projects: projects,
		logger:   logger.Named("CompendiumService"),
	}
}

func (s *compendiumService) owned(ctx context.Context, userID, id uuid.UUID) (*models.CompendiumEntry, error) {
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.GetByID(ctx, e.ProjectID, userID); err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, models.ErrCompendiumEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// cleanList убирает пустые значения и дубликаты без учёта регистра.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *compendiumService) List(ctx context.Context, userID, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error) {
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.entries.ListByProject(ctx, projectID, filter)
}

func (s *compendiumService) Create(ctx context.Context, userID uuid.UUID, in CompendiumInput) (*models.CompendiumEntry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("entry title is required: %w", models.ErrInvalidInput)
	}
	if _, err := s.projects.GetByID(ctx, in.ProjectID, userID); err != nil {
		return nil, err
	}
	entryType := strings.TrimSpace(in.EntryType)
	if entryType == "" {
		entryType = defaultEntryType
	}
	e := &models.CompendiumEntry{
		ProjectID: in.ProjectID,
		Title:     title,
		Content:   in.Content,
		EntryType: entryType,
		Tags:      cleanList(in.Tags),
		Aliases:   cleanList(in.Aliases),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("Compendium entry created", zap.Stringer("entryID", e.ID), zap.Stringer("projectID", e.ProjectID))
	return e, nil
}

func (s *compendiumService) Get(ctx context.Context, userID, id uuid.UUID) (*models.CompendiumEntry, error) {
	return s.owned(ctx, userID, id)
}

func (s *compendiumService) Update(ctx context.Context, userID, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("entry title cannot be empty: %w", models.ErrInvalidInput)
		}
		upd.Title = &title
	}
	if upd.Tags != nil {
		upd.Tags = cleanList(upd.Tags)
	}
	if upd.Aliases != nil {
		upd.Aliases = cleanList(upd.Aliases)
	}
	e, err := s.entries.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Compendium entry updated", zap.Stringer("entryID", id))
	return e, nil
}

func (s *compendiumService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Compendium entry deleted", zap.Stringer("entryID", id))
	return nil
}
