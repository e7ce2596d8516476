// Package store persists finished video records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/remorses/leggiclip/internal/assemble"
)

// Video is one persisted render result.
type Video struct {
	ID            string    `json:"id"`
	RunID         string    `json:"run_id"`
	Title         string    `json:"title"`
	Keywords      []string  `json:"keywords"`
	Script        string    `json:"script"`
	BackgroundURL string    `json:"background_url,omitempty"`
	RenderID      string    `json:"render_id,omitempty"`
	RenderStatus  string    `json:"render_status,omitempty"`
	VideoURL      string    `json:"video_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store manages video history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS videos (
    id             TEXT PRIMARY KEY,
    run_id         TEXT NOT NULL,
    title          TEXT NOT NULL,
    keywords       TEXT NOT NULL,
    script         TEXT NOT NULL,
    background_url TEXT NOT NULL DEFAULT '',
    render_id      TEXT NOT NULL DEFAULT '',
    render_status  TEXT NOT NULL DEFAULT '',
    video_url      TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos(created_at DESC);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts one row per item from a finished run and returns the
// run id assigned to the batch.
func (s *Store) RecordRun(ctx context.Context, items []assemble.Item) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO videos (id, run_id, title, keywords, script, background_url, render_id, render_status, video_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, item := range items {
		keywords, err := json.Marshal(item.Keywords)
		if err != nil {
			return "", fmt.Errorf("failed to encode keywords: %w", err)
		}
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx, insert,
			uuid.New().String(), runID, item.Title, string(keywords), item.Script,
			item.BackgroundURL, item.RenderID, item.RenderStatus, item.VideoURL,
			createdAt.Format(time.RFC3339Nano))
		if err != nil {
			return "", fmt.Errorf("failed to insert video record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// List returns the most recent videos, newest first. A limit of 0 uses 50.
func (s *Store) List(ctx context.Context, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT id, run_id, title, keywords, script, background_url, render_id, render_status, video_url, created_at
FROM videos ORDER BY created_at DESC, id LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read video rows: %w", err)
	}
	return videos, nil
}

// Get returns one video by id, or sql.ErrNoRows if absent.
func (s *Store) Get(ctx context.Context, id string) (*Video, error) {
	const query = `
SELECT id, run_id, title, keywords, script, background_url, render_id, render_status, video_url, created_at
FROM videos WHERE id = ?`

	return scanVideo(s.db.QueryRowContext(ctx, query, id))
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var v Video
	var keywords, createdAt string
	err := scanner.Scan(&v.ID, &v.RunID, &v.Title, &keywords, &v.Script,
		&v.BackgroundURL, &v.RenderID, &v.RenderStatus, &v.VideoURL, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywords), &v.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords for %s: %w", v.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp for %s: %w", v.ID, err)
	}
	v.CreatedAt = t
	return &v, nil
}
