package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversation_state (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// openDB is swapped in tests.
var openDB = sql.Open

// SQLite stores slots in a local database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	d, err := openDB("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	d.SetMaxOpenConns(1)
	if _, err := d.ExecContext(ctx, sqliteSchema); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: d}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (Conversation, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM conversation_state WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, err
	}
	c, err := decode([]byte(data))
	if err != nil {
		return Conversation{}, false, err
	}
	return c, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, c Conversation) error {
	b, err := encode(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO conversation_state(key, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(b), c.UpdatedAt)
	return err
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_state WHERE key = ?`, key)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }
