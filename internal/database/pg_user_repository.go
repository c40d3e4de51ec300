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

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

const pgUniqueViolation = "23505"
const pgForeignKeyViolation = "23503"

const userColumns = `id, username, email, password_hash, full_name, birth_date, age_group, is_active, created_at, updated_at`

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.BirthDate, &u.AgeGroup, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user into the database.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, password_hash, full_name, birth_date, age_group, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)

	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.BirthDate, user.AgeGroup, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				r.logger.Warn("Attempted to create duplicate user by email", logFields...)
				return models.ErrEmailAlreadyExists
			default:
				r.logger.Warn("Attempted to create duplicate user", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
				return models.ErrUserAlreadyExists
			}
		}
		r.logger.Error("Failed to create user in postgres", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", append(logFields, zap.String("userID", user.ID.String()))...)
	return nil
}

func (r *pgUserRepository) getOne(ctx context.Context, where string, arg any, field zap.Field) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	r.logger.Debug("Executing query", zap.String("query", query), field)
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found", field)
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.Error(err), field)
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username, zap.String("username", username))
}

// GetUserByEmail retrieves a user by their email.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email, zap.String("email", email))
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id, zap.String("userID", id.String()))
}

// UpdateProfile обновляет только переданные поля профиля.
func (r *pgUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.UserProfileUpdate) (*models.User, error) {
	query := `UPDATE users SET
			full_name  = COALESCE($2, full_name),
			birth_date = COALESCE($3, birth_date),
			age_group  = COALESCE($4, age_group),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()))

	u, err := scanUser(r.db.QueryRow(ctx, query, id, upd.FullName, upd.BirthDate, upd.AgeGroup))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to update user profile", zap.Error(err), zap.String("userID", id.String()))
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return u, nil
}

// SetActive включает или отключает учетную запись.
func (r *pgUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()), zap.Bool("active", active))
	tag, err := r.db.Exec(ctx, query, id, active)
	if err != nil {
		r.logger.Error("Failed to set user active flag", zap.Error(err), zap.String("userID", id.String()))
		return fmt.Errorf("failed to set user active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
