package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultEmbeddingCachePath = "quotes/embeddings.db"

// EmbeddingCache stores text embeddings keyed by (model, text).
type EmbeddingCache struct {
	db *sql.DB
}

func OpenEmbeddingCache(ctx context.Context, path string) (*EmbeddingCache, error) {
	if path == "" {
		path = DefaultEmbeddingCachePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS embeddings (
			model TEXT NOT NULL,
			text TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (model, text)
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embeddings table: %w", err)
	}
	return &EmbeddingCache{db: db}, nil
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	var raw []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT embedding FROM embeddings WHERE model = ? AND text = ?`, model, text).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading embedding: %w", err)
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decoding embedding: %w", err)
	}
	return v, true, nil
}

func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vector []float32) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model, text, embedding) VALUES (?, ?, ?)`, model, text, raw)
	if err != nil {
		return fmt.Errorf("writing embedding: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}
