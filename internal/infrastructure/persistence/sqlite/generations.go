package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aimgBot/internal/domain"
)

const maxListLimit = 100

type GenerationStore struct {
	db *sql.DB
}

var (
	_ domain.GenerationRecorder = (*GenerationStore)(nil)
	_ domain.GenerationLister   = (*GenerationStore)(nil)
)

func NewGenerationStore(dbPath string) (*GenerationStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &GenerationStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id TEXT PRIMARY KEY,
	platform TEXT NOT NULL,
	channel_id TEXT,
	username TEXT,
	trigger TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt TEXT NOT NULL,
	size TEXT NOT NULL,
	image_url TEXT,
	error TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at DESC);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: migrate generations: %w", err)
	}
	return nil
}

func (s *GenerationStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *GenerationStore) RecordGeneration(ctx context.Context, rec domain.GenerationRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("sqlite: generation without id")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const query = `
INSERT INTO generations (id, platform, channel_id, username, trigger, model, prompt, size, image_url, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Platform),
		nullString(rec.ChannelID),
		nullString(rec.Username),
		string(rec.Trigger),
		rec.Model,
		rec.Prompt,
		rec.Size,
		nullString(rec.ImageURL),
		nullString(rec.Error),
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert generation: %w", err)
	}
	return nil
}

// ListGenerations returns the newest records first. limit is clamped to [1, 100].
func (s *GenerationStore) ListGenerations(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	const query = `
SELECT id, platform, channel_id, username, trigger, model, prompt, size, image_url, error, created_at
FROM generations
ORDER BY created_at DESC, rowid DESC
LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list generations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GenerationRecord, 0, limit)
	for rows.Next() {
		var (
			rec                                      domain.GenerationRecord
			platform, trigger                        string
			channelID, username, imageURL, errString sql.NullString
			createdAt                                time.Time
		)
		if err := rows.Scan(&rec.ID, &platform, &channelID, &username, &trigger, &rec.Model,
			&rec.Prompt, &rec.Size, &imageURL, &errString, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan generation: %w", err)
		}
		rec.Platform = domain.Platform(platform)
		rec.Trigger = domain.Trigger(trigger)
		rec.ChannelID = channelID.String
		rec.Username = username.String
		rec.ImageURL = imageURL.String
		rec.Error = errString.String
		rec.CreatedAt = createdAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate generations: %w", err)
	}
	return out, nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
