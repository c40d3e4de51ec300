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

// ProjectInput - поля нового проекта.
type ProjectInput struct {
	Name        string
	Description string
	CoverImage  *string
}

// ProjectService - CRUD проектов владельца.
type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in ProjectInput) (*models.Project, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, upd models.ProjectUpdate) (*models.Project, error)
	// Delete по умолчанию помечает проект неактивным; permanent удаляет его вместе с содержимым.
	Delete(ctx context.Context, ownerID, id uuid.UUID, permanent bool) error
}

var _ ProjectService = (*projectService)(nil)

type projectService struct {
	projects  interfaces.ProjectRepository
	publisher interfaces.EventPublisher
	logger    *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects interfaces.ProjectRepository, publisher interfaces.EventPublisher, logger *zap.Logger) ProjectService {
	return &projectService{
		projects:  projects,
		publisher: publisher,
		logger:    logger.Named("ProjectService"),
	}
}

func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", models.ErrInvalidInput)
	}
	p := &models.Project{
		Name:        name,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		OwnerID:     ownerID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Project created", zap.Stringer("projectID", p.ID), zap.Stringer("ownerID", ownerID))
	return p, nil
}

func (s *projectService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	return s.projects.ListByOwner(ctx, ownerID)
}

func (s *projectService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Project, error) {
	return s.projects.GetByID(ctx, id, ownerID)
}

func (s *projectService) Update(ctx context.Context, ownerID, id uuid.UUID, upd models.ProjectUpdate) (*models.Project, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("project name cannot be empty: %w", models.ErrInvalidInput)
		}
		upd.Name = &name
	}
	p, err := s.projects.Update(ctx, id, ownerID, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Project updated", zap.Stringer("projectID", id))
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, ownerID, id uuid.UUID, permanent bool) error {
	log := s.logger.With(zap.Stringer("projectID", id), zap.Stringer("ownerID", ownerID), zap.Bool("permanent", permanent))

	var err error
	if permanent {
		err = s.projects.Delete(ctx, id, ownerID)
	} else {
		err = s.projects.SoftDelete(ctx, id, ownerID)
	}
	if err != nil {
		if !errors.Is(err, models.ErrProjectNotFound) {
			log.Error("Failed to delete project", zap.Error(err))
		}
		return err
	}
	log.Info("Project deleted")

	ev := models.NewDomainEvent(models.EventProjectDeleted, ownerID, id)
	ev.Permanent = permanent
	publishEvent(ctx, s.publisher, s.logger, ev)
	return nil
}
