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

var _ interfaces.CompendiumRepository = (*pgCompendiumRepository)(nil)

const compendiumColumns = `id, project_id, title, content, entry_type, tags, aliases, created_at, updated_at`

type pgCompendiumRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCompendiumRepository создает репозиторий компендиума.
func NewPgCompendiumRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CompendiumRepository {
	return &pgCompendiumRepository{
		db:     db,
		logger: logger.Named("PgCompendiumRepo"),
	}
}

func scanCompendiumEntry(row pgx.Row) (*models.CompendiumEntry, error) {
	e := &models.CompendiumEntry{}
	if err := row.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Content, &e.EntryType, &e.Tags, &e.Aliases, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Aliases == nil {
		e.Aliases = []string{}
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *pgCompendiumRepository) Create(ctx context.Context, entry *models.CompendiumEntry) error {
	if entry.EntryType == "" {
		entry.EntryType = "general"
	}
	entry.Tags = nonNil(entry.Tags)
	entry.Aliases = nonNil(entry.Aliases)

	query := `INSERT INTO compendium_entries (project_id, title, content, entry_type, tags, aliases)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", entry.ProjectID.String()))
	err := r.db.QueryRow(ctx, query, entry.ProjectID, entry.Title, entry.Content, entry.EntryType, entry.Tags, entry.Aliases).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create compendium entry", zap.Error(err), zap.String("projectID", entry.ProjectID.String()))
		return fmt.Errorf("failed to create compendium entry: %w", err)
	}
	return nil
}

func (r *pgCompendiumRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CompendiumEntry, error) {
	query := `SELECT ` + compendiumColumns + ` FROM compendium_entries WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("entryID", id.String()))
	e, err := scanCompendiumEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCompendiumEntryNotFound
		}
		r.logger.Error("Failed to get compendium entry", zap.Error(err), zap.String("entryID", id.String()))
		return nil, fmt.Errorf("failed to get compendium entry: %w", err)
	}
	return e, nil
}

// ListByProject возвращает записи проекта; пустые значения фильтра не ограничивают выборку.
func (r *pgCompendiumRepository) ListByProject(ctx context.Context, projectID uuid.UUID, filter models.CompendiumFilter) ([]models.CompendiumEntry, error) {
	query := `SELECT ` + compendiumColumns + ` FROM compendium_entries
		WHERE project_id = $1
		  AND ($2::text = '' OR entry_type = $2::text)
		  AND ($3::text = '' OR $3::text = ANY(tags))
		ORDER BY entry_type ASC, title ASC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", projectID.String()),
		zap.String("type", filter.EntryType), zap.String("tag", filter.Tag))
	rows, err := r.db.Query(ctx, query, projectID, filter.EntryType, filter.Tag)
	if err != nil {
		r.logger.Error("Failed to list compendium entries", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to list compendium entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.CompendiumEntry, 0)
	for rows.Next() {
		e, err := scanCompendiumEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compendium row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compendium rows: %w", err)
	}
	return entries, nil
}

func (r *pgCompendiumRepository) Update(ctx context.Context, id uuid.UUID, upd models.CompendiumUpdate) (*models.CompendiumEntry, error) {
	query := `UPDATE compendium_entries SET
			title      = COALESCE($2, title),
			content    = COALESCE($3, content),
			entry_type = COALESCE($4, entry_type),
			tags       = COALESCE($5::text[], tags),
			aliases    = COALESCE($6::text[], aliases),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + compendiumColumns
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("entryID", id.String()))
	e, err := scanCompendiumEntry(r.db.QueryRow(ctx, query, id, upd.Title, upd.Content, upd.EntryType, upd.Tags, upd.Aliases))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCompendiumEntryNotFound
		}
		r.logger.Error("Failed to update compendium entry", zap.Error(err), zap.String("entryID", id.String()))
		return nil, fmt.Errorf("failed to update compendium entry: %w", err)
	}
	return e, nil
}

func (r *pgCompendiumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM compendium_entries WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("entryID", id.String()))
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete compendium entry", zap.Error(err), zap.String("entryID", id.String()))
		return fmt.Errorf("failed to delete compendium entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCompendiumEntryNotFound
	}
	return nil
}
