// Package migration накатывает встроенные SQL-миграции golang-migrate
// на базу, к которой уже открыт пул pgx.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const defaultTable = "schema_migrations"

// ErrDirty - предыдущая миграция упала на середине, схему нужно чинить руками.
var ErrDirty = errors.New("database schema is dirty")

// Runner применяет миграции из fs.FS.
type Runner struct {
	src         fs.FS
	dir         string
	table       string
	lockTimeout time.Duration
	logger      *zap.Logger
}

// Option настраивает Runner.
type Option func(*Runner)

// WithTable задаёт имя таблицы версий.
func WithTable(name string) Option {
	return func(r *Runner) { r.table = name }
}

// WithLockTimeout задаёт ожидание advisory-lock, если миграции
// одновременно запускает несколько экземпляров сервиса.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Runner) { r.lockTimeout = d }
}

// New создаёт Runner для каталога dir внутри src.
func New(src fs.FS, dir string, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		src:         src,
		dir:         dir,
		table:       defaultTable,
		lockTimeout: 30 * time.Second,
		logger:      logger.Named("Migrator"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result - версии схемы до и после Up.
type Result struct {
	From uint
	To   uint
}

// Applied сообщает, была ли применена хотя бы одна миграция.
func (r Result) Applied() bool { return r.To != r.From }

// Up применяет все новые миграции. Отмена ctx останавливает процесс после
// текущей миграции.
func (r *Runner) Up(ctx context.Context, pool *pgxpool.Pool) (Result, error) {
	m, err := r.open(ctx, pool)
	if err != nil {
		return Result{}, err
	}
	defer r.close(m)

	var res Result
	from, dirty, err := version(m)
	if err != nil {
		return res, err
	}
	if dirty {
		return res, fmt.Errorf("%w at version %d", ErrDirty, from)
	}
	res.From, res.To = from, from

	stop := context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if res.To, _, err = version(m); err != nil {
		return res, err
	}
	if res.Applied() {
		r.logger.Info("Database migrations applied", zap.Uint("from", res.From), zap.Uint("to", res.To))
	} else {
		r.logger.Info("Database schema is up to date", zap.Uint("version", res.To))
	}
	return res, ctx.Err()
}

// Version возвращает текущую версию схемы (0, если миграций ещё не было).
func (r *Runner) Version(ctx context.Context, pool *pgxpool.Pool) (uint, bool, error) {
	m, err := r.open(ctx, pool)
	if err != nil {
		return 0, false, err
	}
	defer r.close(m)
	return version(m)
}

func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, dirty, nil
}

func (r *Runner) open(ctx context.Context, pool *pgxpool.Pool) (*migrate.Migrate, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// database/sql поверх того же пула; закрывается вместе с драйвером
	driver, err := postgres.WithInstance(stdlib.OpenDBFromPool(pool), &postgres.Config{
		MigrationsTable: r.table,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(r.src, r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations from %q: %w", r.dir, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.LockTimeout = r.lockTimeout
	m.Log = zapLogger{r.logger}
	return m, nil
}

func (r *Runner) close(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		r.logger.Warn("Failed to close migrator",
			zap.NamedError("source_error", srcErr),
			zap.NamedError("db_error", dbErr),
		)
	}
}

// zapLogger реализует migrate.Logger.
type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) Printf(format string, v ...any) {
	z.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (z zapLogger) Verbose() bool {
	return z.l.Core().Enabled(zap.DebugLevel)
}
