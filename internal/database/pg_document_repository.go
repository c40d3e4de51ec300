package database

import (
	"context"
	"errors"
	"fmt"

	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ interfaces.DocumentRepository = (*pgDocumentRepository)(nil)

const documentColumns = `id, title, content, document_type, order_index, project_id, parent_id, is_active, created_at, updated_at`

type pgDocumentRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgDocumentRepository создает репозиторий документов поверх PostgreSQL.
func NewPgDocumentRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.DocumentRepository {
	return &pgDocumentRepository{
		db:     db,
		logger: logger.Named("PgDocumentRepo"),
	}
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	d := &models.Document{}
	var docType string
	err := row.Scan(&d.ID, &d.Title, &d.Content, &docType, &d.OrderIndex, &d.ProjectID, &d.ParentID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.DocumentType = models.DocumentType(docType)
	return d, nil
}

// mapDocumentError переводит ошибки pgx в доменные.
func (r *pgDocumentRepository) mapDocumentError(err error, op string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrDocumentNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			r.logger.Warn("Document references missing row", zap.String("constraint", pgErr.ConstraintName), zap.String("documentID", id.String()))
			if pgErr.ConstraintName == "documents_project_id_fkey" {
				return models.ErrProjectNotFound
			}
			return models.ErrInvalidParent
		case "23514": // check_violation: documents_not_own_parent
			return models.ErrInvalidParent
		}
	}
	r.logger.Error("Document query failed", zap.String("op", op), zap.Error(err), zap.String("documentID", id.String()))
	return fmt.Errorf("failed to %s document: %w", op, err)
}

func (r *pgDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.DocumentType == "" {
		doc.DocumentType = models.DefaultDocumentType
	}
	query := `INSERT INTO documents (title, content, document_type, order_index, project_id, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", doc.ProjectID.String()))
	err := r.db.QueryRow(ctx, query, doc.Title, doc.Content, string(doc.DocumentType), doc.OrderIndex, doc.ProjectID, doc.ParentID).
		Scan(&doc.ID, &doc.IsActive, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return r.mapDocumentError(err, "create", uuid.Nil)
	}
	return nil
}

// GetByID возвращает активный документ.
func (r *pgDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND is_active`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("documentID", id.String()))
	d, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.mapDocumentError(err, "get", id)
	}
	return d, nil
}

func (r *pgDocumentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE project_id = $1 AND is_active
		ORDER BY order_index ASC, created_at ASC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("projectID", projectID.String()))
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

func (r *pgDocumentRepository) Update(ctx context.Context, id uuid.UUID, upd models.DocumentUpdate) (*models.Document, error) {
	var docType *string
	if upd.DocumentType != nil {
		s := string(*upd.DocumentType)
		docType = &s
	}
	query := `UPDATE documents SET
			title         = COALESCE($2, title),
			content       = COALESCE($3, content),
			document_type = COALESCE($4, document_type),
			order_index   = COALESCE($5, order_index),
			parent_id     = CASE WHEN $7 THEN NULL ELSE COALESCE($6, parent_id) END,
			updated_at    = NOW()
		WHERE id = $1 AND is_active
		RETURNING ` + documentColumns
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("documentID", id.String()))
	d, err := scanDocument(r.db.QueryRow(ctx, query, id, upd.Title, upd.Content, docType, upd.OrderIndex, upd.ParentID, upd.ClearParent))
	if err != nil {
		return nil, r.mapDocumentError(err, "update", id)
	}
	return d, nil
}

func (r *pgDocumentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.Document, error) {
	query := `UPDATE documents SET content = $2, updated_at = NOW() WHERE id = $1 AND is_active RETURNING ` + documentColumns
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("documentID", id.String()), zap.Int("contentLength", len(content)))
	d, err := scanDocument(r.db.QueryRow(ctx, query, id, content))
	if err != nil {
		return nil, r.mapDocumentError(err, "save", id)
	}
	return d, nil
}

func (r *pgDocumentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE documents SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`
	return r.exec(ctx, query, id)
}

// Delete удаляет документ физически. parent_id детей обнуляется внешним ключом ON DELETE SET NULL.
func (r *pgDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *pgDocumentRepository) exec(ctx context.Context, query string, id uuid.UUID) error {
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("documentID", id.String()))
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.mapDocumentError(err, "delete", id)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}
