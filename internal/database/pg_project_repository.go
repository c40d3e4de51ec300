package database

import (
	"context"
	"errors"
	"fmt"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.ProjectRepository = (*pgProjectRepository)(nil)

const projectColumns = `id, name, description, cover_image, owner_id, is_active, created_at, updated_at`

type pgProjectRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProjectRepository создает репозиторий проектов поверх PostgreSQL.
func NewPgProjectRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProjectRepository {
	return &pgProjectRepository{
		db:     db,
		logger: logger.Named("PgProjectRepo"),
	}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	p := &models.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CoverImage, &p.OwnerID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `INSERT INTO projects (name, description, cover_image, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("ownerID", project.OwnerID.String()))
	err := r.db.QueryRow(ctx, query, project.Name, project.Description, project.CoverImage, project.OwnerID).
		Scan(&project.ID, &project.IsActive, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create project", zap.Error(err), zap.String("ownerID", project.OwnerID.String()))
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID возвращает активный проект владельца.
func (r *pgProjectRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2 AND is_active`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", id.String()))
	p, err := scanProject(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		r.logger.Error("Failed to get project", zap.Error(err), zap.String("projectID", id.String()))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 AND is_active ORDER BY updated_at DESC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("ownerID", ownerID.String()))
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

func (r *pgProjectRepository) Update(ctx context.Context, id, ownerID uuid.UUID, upd models.ProjectUpdate) (*models.Project, error) {
	query := `UPDATE projects SET
			name        = COALESCE($3, name),
			description = COALESCE($4, description),
			cover_image = COALESCE($5, cover_image),
			updated_at  = NOW()
		WHERE id = $1 AND owner_id = $2 AND is_active
		RETURNING ` + projectColumns
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", id.String()))
	p, err := scanProject(r.db.QueryRow(ctx, query, id, ownerID, upd.Name, upd.Description, upd.CoverImage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		r.logger.Error("Failed to update project", zap.Error(err), zap.String("projectID", id.String()))
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `UPDATE projects SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND owner_id = $2 AND is_active`
	return r.execOwned(ctx, query, id, ownerID)
}

func (r *pgProjectRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1 AND owner_id = $2`
	return r.execOwned(ctx, query, id, ownerID)
}

func (r *pgProjectRepository) execOwned(ctx context.Context, query string, id, ownerID uuid.UUID) error {
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", id.String()))
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Error(err), zap.String("projectID", id.String()))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	r.logger.Info("Project deleted", zap.String("projectID", id.String()), zap.String("query", query))
	return nil
}
