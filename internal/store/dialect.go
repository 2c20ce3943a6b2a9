// Package store executes generic, audit-aware persistence operations for
// registered entity types over database/sql. One Collection serves one
// entity type; all SQL is generated from the type's capability descriptor.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/stanza-hq/stanza-backend/internal/query"
)

// Dialect abstracts the placeholder and DDL differences between backends.
type Dialect struct {
	Name        string
	Placeholder query.Placeholder
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
	SQLite   = Dialect{Name: "sqlite", Placeholder: func(n int) string { return "?" }}
)

// OpenPostgres opens a PostgreSQL pool via the pgx stdlib driver and
// verifies connectivity.
func OpenPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database at the given path with WAL
// journal mode and foreign keys enabled.
func OpenSQLite(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DB bundles a sql.DB with its dialect and logger.
type DB struct {
	sqlDB   *sql.DB
	dialect Dialect
	log     zerolog.Logger
	now     func() time.Time
}

// New wraps an opened database handle.
func New(db *sql.DB, dialect Dialect, log zerolog.Logger) *DB {
	return &DB{
		sqlDB:   db,
		dialect: dialect,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping verifies connectivity; used by the health checker.
func (db *DB) Ping(ctx context.Context) error { return db.sqlDB.PingContext(ctx) }

// Close releases the underlying pool.
func (db *DB) Close() error { return db.sqlDB.Close() }
