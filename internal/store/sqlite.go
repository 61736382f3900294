package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vocalcoach/platform/internal/trace"
)

const schema = `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updatedAt REAL NOT NULL
	);
`

// SQLiteStore is a KeyValueStore backed by a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the slot database at path with WAL.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("scan slot %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Corrupt data degrades to absence, never an error.
		trace.Logger(ctx).Warn("discarding corrupt slot value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal slot %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updatedAt) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, key, string(raw), float64(time.Now().UnixNano())/1e9)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
			return fmt.Errorf("remove slot %s: %w", key, err)
		}
	}
	return nil
}
