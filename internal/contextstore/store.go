// Package contextstore chunks, embeds and indexes text per subject (resume) for retrieval.
package contextstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"recommendation-backend/internal/llm"
)

// Document types indexed by the pipeline.
const (
	TypeResume         = "resume_text"
	TypeEntityResearch = "entity_research"
)

const (
	DefaultTopK       = 5
	DocumentsLimit    = 100
	DefaultRefreshMax = 10
)

// ErrUnavailable wraps index and embedding failures.
var ErrUnavailable = errors.New("context store unavailable")

// Metadata identifies the document a chunk belongs to.
type Metadata struct {
	SubjectID string
	Type      string
	Entity    string
}

// Chunk is one indexed slice of text.
type Chunk struct {
	ID        string
	SubjectID string
	Type      string
	Entity    string
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// Index stores chunk vectors.
type Index interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, subjectID string, query []float32, k int) ([]Chunk, error)
	List(ctx context.Context, subjectID string, limit int) ([]Chunk, error)
	Delete(ctx context.Context, ids []string) error
	DeleteSubject(ctx context.Context, subjectID string) (int64, error)
}

// Options tune a Service.
type Options struct {
	// RefreshBound is how many chunk ids RefreshDocument clears before re-adding.
	RefreshBound int
}

// Service is the context store used by the pipeline.
type Service struct {
	index    Index
	embedder llm.Embedder
	splitter Splitter
	opts     Options
	logger   *zap.Logger
}

// NewService wires a context store.
func NewService(index Index, embedder llm.Embedder, splitter Splitter, opts Options, logger *zap.Logger) *Service {
	if opts.RefreshBound <= 0 {
		opts.RefreshBound = DefaultRefreshMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, embedder: embedder, splitter: splitter, opts: opts, logger: logger.Named("contextstore")}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// AddDocument chunks text and indexes it under md. Returns the chunk ids written.
func (s *Service) AddDocument(ctx context.Context, text string, md Metadata) ([]string, error) {
	if md.SubjectID == "" {
		return nil, errors.New("subject id is required")
	}
	chunks, err := Chunks(ctx, s.splitter, text)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, unavailable("embed", err)
	}
	if len(vectors) != len(chunks) {
		return nil, unavailable("embed", fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	now := time.Now().UTC()
	records := make([]Chunk, len(chunks))
	ids := make([]string, len(chunks))
	for i, content := range chunks {
		ids[i] = ChunkID(md, i)
		records[i] = Chunk{
			ID:        ids[i],
			SubjectID: md.SubjectID,
			Type:      md.Type,
			Entity:    md.Entity,
			Content:   content,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return nil, unavailable("upsert", err)
	}
	s.logger.Debug("context.indexed",
		zap.String("subject_id", md.SubjectID),
		zap.String("type", md.Type),
		zap.Int("chunks", len(records)))
	return ids, nil
}

// RefreshDocument deletes the first RefreshBound chunk ids of md's prefix, then adds text.
// Chunks beyond the bound from an older, longer version survive.
func (s *Service) RefreshDocument(ctx context.Context, text string, md Metadata) ([]string, error) {
	stale := make([]string, s.opts.RefreshBound)
	for i := range stale {
		stale[i] = ChunkID(md, i)
	}
	if err := s.index.Delete(ctx, stale); err != nil {
		return nil, unavailable("delete", err)
	}
	return s.AddDocument(ctx, text, md)
}

// Retrieve returns up to k chunk texts of subjectID ranked by similarity to query.
func (s *Service) Retrieve(ctx context.Context, query, subjectID string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, unavailable("embed", err)
	}
	if len(vectors) != 1 {
		return nil, unavailable("embed", fmt.Errorf("got %d query vectors", len(vectors)))
	}
	hits, err := s.index.Search(ctx, subjectID, vectors[0], k)
	if err != nil {
		return nil, unavailable("search", err)
	}
	return contents(hits), nil
}

// GetDocuments returns up to 100 chunk texts of subjectID without ranking.
func (s *Service) GetDocuments(ctx context.Context, subjectID string) ([]string, error) {
	hits, err := s.index.List(ctx, subjectID, DocumentsLimit)
	if err != nil {
		return nil, unavailable("list", err)
	}
	return contents(hits), nil
}

// DeleteSubject drops every chunk of subjectID.
func (s *Service) DeleteSubject(ctx context.Context, subjectID string) error {
	n, err := s.index.DeleteSubject(ctx, subjectID)
	if err != nil {
		return unavailable("delete subject", err)
	}
	s.logger.Debug("context.subject_deleted", zap.String("subject_id", subjectID), zap.Int64("chunks", n))
	return nil
}

func contents(chunks []Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Content)
	}
	return out
}
