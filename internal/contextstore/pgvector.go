package contextstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// PGVectorIndex stores chunks in Postgres with the pgvector extension.
type PGVectorIndex struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPGVectorIndex(pool *pgxpool.Pool, logger *zap.Logger) *PGVectorIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGVectorIndex{pool: pool, logger: logger.Named("pgvector")}
}

// EnsureSchema installs the vector extension when missing and creates the chunk table.
func (p *PGVectorIndex) EnsureSchema(ctx context.Context, dim int) error {
	var extensionExists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&extensionExists)
	if err != nil {
		return fmt.Errorf("check pgvector extension: %w", err)
	}
	if !extensionExists {
		p.logger.Info("pgvector extension not found, creating")
		if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("create pgvector extension: %w", err)
		}
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS context_chunks (
			id         TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			doc_type   TEXT NOT NULL,
			entity     TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding  vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dim)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create context_chunks: %w", err)
	}
	if _, err := p.pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS context_chunks_subject_idx ON context_chunks (subject_id)"); err != nil {
		return fmt.Errorf("create context_chunks index: %w", err)
	}
	return nil
}

func (p *PGVectorIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO context_chunks (id, subject_id, doc_type, entity, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`

	for _, c := range chunks {
		meta, err := json.Marshal(map[string]string{
			"resume_id": c.SubjectID,
			"type":      c.Type,
			"entity":    c.Entity,
		})
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertSQL,
			c.ID, c.SubjectID, c.Type, c.Entity, c.Content, meta, pgvector.NewVector(c.Embedding), c.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *PGVectorIndex) Search(ctx context.Context, subjectID string, query []float32, k int) ([]Chunk, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, subject_id, doc_type, entity, content, created_at
		FROM context_chunks
		WHERE subject_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3`, subjectID, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return collect(rows)
}

func (p *PGVectorIndex) List(ctx context.Context, subjectID string, limit int) ([]Chunk, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, subject_id, doc_type, entity, content, created_at
		FROM context_chunks
		WHERE subject_id = $1
		ORDER BY created_at, id
		LIMIT $2`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return collect(rows)
}

func (p *PGVectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.pool.Exec(ctx, "DELETE FROM context_chunks WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (p *PGVectorIndex) DeleteSubject(ctx context.Context, subjectID string) (int64, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM context_chunks WHERE subject_id = $1", subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete subject chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collect(rows pgx.Rows) ([]Chunk, error) {
	defer rows.Close()
	out := make([]Chunk, 0)
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.Type, &c.Entity, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Index = (*PGVectorIndex)(nil)
