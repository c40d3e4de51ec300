package database

import (
	"context"
	"embed"

	"writingway/pkg/migration"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator возвращает Runner над встроенными миграциями схемы.
func NewMigrator(logger *zap.Logger) *migration.Runner {
	return migration.New(migrationsFS, "migrations", logger)
}

// ApplyMigrations доводит схему до последней версии.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	_, err := NewMigrator(logger).Up(ctx, pool)
	return err
}
