// Package migration применяет встроенные SQL-миграции через golang-migrate:
// Postgres поверх pgx-пула и локальную SQLite поверх *sql.DB.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// MigrationsTable - таблица версий в обеих схемах.
const MigrationsTable = "schema_migrations"

// Config описывает, откуда брать миграции.
type Config struct {
	MigrationsFS   fs.FS
	MigrationsPath string
	// LockTimeout по умолчанию 30s.
	LockTimeout time.Duration
}

// Migrator runs migrations against one database.
type Migrator struct {
	config    Config
	logger    *zap.Logger
	dbName    string
	newDriver func() (database.Driver, error)
	// sharedDB: *sql.DB принадлежит вызывающему, закрывать его нельзя.
	sharedDB bool
}

// NewMigrator creates a Migrator for a pgx pool.
func NewMigrator(config Config, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	m := newMigrator(config, "postgres", logger)
	m.newDriver = func() (database.Driver, error) {
		db := stdlib.OpenDBFromPool(pool)
		driver, err := postgres.WithInstance(db, postgresConfig())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		return driver, nil
	}
	return m
}

// NewSQLiteMigrator creates a Migrator for an open SQLite handle. The handle
// stays open after every operation.
func NewSQLiteMigrator(config Config, db *sql.DB, logger *zap.Logger) *Migrator {
	m := newMigrator(config, "sqlite", logger)
	m.sharedDB = true
	m.newDriver = func() (database.Driver, error) {
		driver, err := sqlite.WithInstance(db, sqliteConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}
		return driver, nil
	}
	return m
}

func newMigrator(config Config, dbName string, logger *zap.Logger) *Migrator {
	if config.LockTimeout <= 0 {
		config.LockTimeout = 30 * time.Second
	}
	return &Migrator{
		config: config,
		logger: logger.Named("Migrator").With(zap.String("db", dbName)),
		dbName: dbName,
	}
}

func postgresConfig() *postgres.Config {
	return &postgres.Config{MigrationsTable: MigrationsTable}
}

func sqliteConfig() *sqlite.Config {
	return &sqlite.Config{MigrationsTable: MigrationsTable}
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	return m.run("up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	return m.run("down", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Steps applies n migrations, negative n rolls back.
func (m *Migrator) Steps(n int) error {
	return m.run("steps", func(mg *migrate.Migrate) error { return mg.Steps(n) })
}

// ForceVersion sets the migration version without running anything and
// clears the dirty flag.
func (m *Migrator) ForceVersion(version int) error {
	return m.run("force", func(mg *migrate.Migrate) error { return mg.Force(version) })
}

// Version returns the current version; zero when nothing was applied.
func (m *Migrator) Version() (uint, bool, error) {
	mg, closeFn, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) run(op string, fn func(*migrate.Migrate) error) error {
	mg, closeFn, err := m.open()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := fn(mg); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Database schema is up to date", zap.String("op", op))
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", op, err)
	}
	m.logger.Info("Database migrations applied", zap.String("op", op))
	return nil
}

func (m *Migrator) open() (*migrate.Migrate, func(), error) {
	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	driver, err := m.newDriver()
	if err != nil {
		_ = source.Close()
		return nil, nil, err
	}

	mg, err := migrate.NewWithInstance("iofs", source, m.dbName, driver)
	if err != nil {
		_ = source.Close()
		if !m.sharedDB {
			_ = driver.Close()
		}
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	mg.LockTimeout = m.config.LockTimeout

	closeFn := func() {
		if m.sharedDB {
			// migrate.Close закрыл бы и *sql.DB вызывающего.
			if err := source.Close(); err != nil {
				m.logger.Warn("Failed to close migration source", zap.Error(err))
			}
			return
		}
		if srcErr, dbErr := mg.Close(); srcErr != nil || dbErr != nil {
			m.logger.Warn("Failed to close migrator", zap.NamedError("sourceErr", srcErr), zap.NamedError("dbErr", dbErr))
		}
	}
	return mg, closeFn, nil
}
