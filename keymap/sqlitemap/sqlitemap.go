// Package sqlitemap implements keymap.KeyMap on SQLite (modernc.org/sqlite, pure Go).
package sqlitemap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/fwdindex/db/sqliteutil"
	"github.com/viant/fwdindex/keymap"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Map is a SQLite-backed key map.
type Map struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Map, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitemap: mkdir: %w", err)
		}
	}
	dsn := sqliteutil.EnsurePragmas(sqliteutil.FileDSN(path), true, 5000)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitemap: open: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)
	m := &Map{db: db}
	if err := m.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Map) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS keymap (
            key TEXT PRIMARY KEY,
            id INTEGER NOT NULL
        );`,
		`PRAGMA synchronous=NORMAL;`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlitemap: schema: %w", err)
		}
	}
	return nil
}

func (m *Map) Get(ctx context.Context, key string) (int64, bool, error) {
	var id int64
	err := m.db.QueryRowContext(ctx, `SELECT id FROM keymap WHERE key = ?`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlitemap: get %s: %w", key, err)
	}
	return id, true, nil
}

func (m *Map) Put(ctx context.Context, key string, id int64) error {
	_, err := m.db.ExecContext(ctx, `INSERT INTO keymap(key, id) VALUES(?, ?)
        ON CONFLICT(key) DO UPDATE SET id = excluded.id`, key, id)
	if err != nil {
		return fmt.Errorf("sqlitemap: put %s: %w", key, err)
	}
	return nil
}

func (m *Map) Delete(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM keymap WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitemap: delete %s: %w", key, err)
	}
	return nil
}

func (m *Map) Range(ctx context.Context, prefix string, fn func(key string, id int64) bool) error {
	rows, err := m.db.QueryContext(ctx, `SELECT key, id FROM keymap
        WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("sqlitemap: range %s: %w", prefix, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var id int64
		if err := rows.Scan(&key, &id); err != nil {
			return fmt.Errorf("sqlitemap: range %s: %w", prefix, err)
		}
		if !fn(key, id) {
			break
		}
	}
	return rows.Err()
}

func (m *Map) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM keymap`); err != nil {
		return fmt.Errorf("sqlitemap: clear: %w", err)
	}
	return nil
}

// Len returns the number of keys.
func (m *Map) Len(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keymap`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlitemap: count: %w", err)
	}
	return n, nil
}

func (m *Map) Close() error {
	return m.db.Close()
}

var _ keymap.KeyMap = (*Map)(nil)
