// Package history persists finished transcriptions in a local sqlite
// database so the UI can show past dictations across restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/b2tsrl/openwhispr/pkg/types"
)

const (
	// DefaultLimit caps retained entries when no limit is configured.
	DefaultLimit = 200
	// defaultRecent is the page size for Recent when n <= 0.
	defaultRecent = 50
)

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id            TEXT PRIMARY KEY,
	created_at    INTEGER NOT NULL,
	model_path    TEXT NOT NULL,
	language      TEXT NOT NULL DEFAULT '',
	audio_bytes   INTEGER NOT NULL,
	audio_seconds REAL NOT NULL DEFAULT 0,
	took_ms       INTEGER NOT NULL,
	text          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at
	ON transcriptions(created_at DESC);
`

// Store is a bounded transcription log backed by sqlite.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens (or creates) the database at path and applies the schema.
// limit caps retained entries; values <= 0 use DefaultLimit.
func Open(path string, limit int) (*Store, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, limit: limit}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores one entry and prunes the log down to the configured limit.
// A missing ID or timestamp is filled in; the stored entry is returned.
func (s *Store) Add(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAtUnix == 0 {
		e.CreatedAtUnix = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcriptions
			(id, created_at, model_path, language, audio_bytes, audio_seconds, took_ms, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAtUnix, e.ModelPath, e.Language, e.AudioBytes, e.AudioSeconds, e.TookMS, e.Text)
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("insert transcription: %w", err)
	}
	if err := s.prune(ctx); err != nil {
		return types.HistoryEntry{}, err
	}
	return e, nil
}

// Recent returns up to n entries, newest first. n <= 0 uses a default
// page size.
func (s *Store) Recent(ctx context.Context, n int) ([]types.HistoryEntry, error) {
	if n <= 0 {
		n = defaultRecent
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model_path, language, audio_bytes, audio_seconds, took_ms, text
		 FROM transcriptions
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query transcriptions: %w", err)
	}
	defer rows.Close()

	entries := make([]types.HistoryEntry, 0, n)
	for rows.Next() {
		var e types.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CreatedAtUnix, &e.ModelPath, &e.Language,
			&e.AudioBytes, &e.AudioSeconds, &e.TookMS, &e.Text); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcriptions`).Scan(&n)
	return n, err
}

func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM transcriptions WHERE id NOT IN (
			SELECT id FROM transcriptions
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?)`, s.limit)
	if err != nil {
		return fmt.Errorf("prune transcriptions: %w", err)
	}
	return nil
}
