// Package sqlite stores key/value documents in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/storage"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ storage.Store   = (*Repository)(nil)
	_ storage.Batcher = (*Repository)(nil)
	_ storage.Deleter = (*Repository)(nil)
)

const upsertSQL = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// The CLI and the worker may open the same file. Pragmas in the DSN are
	// applied to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

func (r *Repository) conn() (*sql.DB, error) {
	if r.db == nil {
		return nil, storage.ErrClosed
	}
	return r.db, nil
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := r.conn()
	if err != nil {
		return nil, false, err
	}
	var value []byte
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, upsertSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	slog.DebugContext(ctx, "Document saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// SetMany writes every value inside one transaction.
func (r *Repository) SetMany(ctx context.Context, values map[string][]byte) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, upsertSQL, key, value, now); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.DebugContext(ctx, "Documents saved to SQLite", "count", len(values))
	return nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
