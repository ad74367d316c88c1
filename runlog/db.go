package runlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cemint/cemint-insights/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is an open, migrated history database.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
	log  *logger.Logger

	mu     sync.Mutex
	closed bool
}

// Open connects to cfg.DSN and applies pending migrations.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	g, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger:                 newGormLogger(log, cfg.SlowQuery, cfg.LogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", cfg.DSN, err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("history: ping %s: %w", cfg.DSN, err)
	}

	db := &DB{gorm: g, sql: sqlDB, log: log}
	version, err := db.migrate()
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("history database ready", logger.Fields("dsn", cfg.DSN, "schema_version", version))
	return db, nil
}

// migrate applies the embedded migrations and returns the schema version.
// The migrator is never closed: that would close the shared *sql.DB.
func (d *DB) migrate() (uint, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("history: migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(d.sql, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("history: migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("history: migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("history: migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("history: migrate version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("history: schema version %d is dirty", version)
	}
	return version, nil
}

// WithContext returns a GORM session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats reports the connection pool.
func (d *DB) Stats() sql.DBStats {
	return d.sql.Stats()
}

// Close closes the pool. Later calls are no-ops.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.sql.Close()
}
