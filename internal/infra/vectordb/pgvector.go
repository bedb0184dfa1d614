package vectordb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/db/postgres"
)

// PGVectorIndex keeps catalog vectors in PostgreSQL and ranks them with the
// pgvector cosine distance operator.
type PGVectorIndex struct {
	db *postgres.DB
}

func NewPGVectorIndex(ctx context.Context, db *postgres.DB) (*PGVectorIndex, error) {
	idx := &PGVectorIndex{db: db}
	if err := idx.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initializing pgvector schema: %w", err)
	}
	return idx, nil
}

func (p *PGVectorIndex) initSchema(ctx context.Context) error {
	if _, err := p.db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}
	_, err := p.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_vectors (
			id INTEGER PRIMARY KEY,
			embedding vector NOT NULL
		)`)
	return err
}

func (p *PGVectorIndex) Reset(ctx context.Context) error {
	_, err := p.db.Pool.Exec(ctx, `TRUNCATE catalog_vectors`)
	return err
}

func (p *PGVectorIndex) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors differ in length: %d != %d", len(ids), len(vectors))
	}
	batch := &pgx.Batch{}
	for i, id := range ids {
		batch.Queue(`
			INSERT INTO catalog_vectors (id, embedding) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding`,
			id, pgvector.NewVector(vectors[i]))
	}
	return p.db.Pool.SendBatch(ctx, batch).Close()
}

func (p *PGVectorIndex) Nearest(ctx context.Context, vector []float32, k int) ([]lookup.Match, error) {
	if k <= 0 {
		k = 1
	}
	rows, err := p.db.Pool.Query(ctx, `
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM catalog_vectors
		ORDER BY embedding <=> $1, id
		LIMIT $2`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lookup.Match
	for rows.Next() {
		var m lookup.Match
		if err := rows.Scan(&m.ID, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
