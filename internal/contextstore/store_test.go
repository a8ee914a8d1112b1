package contextstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func newTestService(t *testing.T) (*Service, *MemoryIndex) {
	t.Helper()
	splitter, err := NewRecursiveSplitter(context.Background())
	require.NoError(t, err)
	index := NewMemoryIndex()
	return NewService(index, HashEmbedder{Dim: 64}, splitter, Options{RefreshBound: 3}, nil), index
}

func TestAddDocumentIndexesUnderDeterministicIDs(t *testing.T) {
	svc, index := newTestService(t)
	ctx := context.Background()

	ids, err := svc.AddDocument(ctx, "Senior engineer at Acme Corp.", Metadata{SubjectID: "r1", Type: TypeResume})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1_resume_text_chunk_0"}, ids)

	chunks, err := index.List(ctx, "r1", 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, TypeResume, chunks[0].Type)
	assert.Len(t, chunks[0].Embedding, 64)
}

func TestRetrieveStaysWithinSubject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "python machine learning research", Metadata{SubjectID: "r1", Type: TypeResume})
	require.NoError(t, err)
	_, err = svc.AddDocument(ctx, "python is a programming language", Metadata{SubjectID: "r1", Type: TypeEntityResearch, Entity: "python"})
	require.NoError(t, err)
	_, err = svc.AddDocument(ctx, "python everywhere", Metadata{SubjectID: "r2", Type: TypeResume})
	require.NoError(t, err)

	hits, err := svc.Retrieve(ctx, "python programming language", "r1", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "python is a programming language", hits[0])
	assert.NotContains(t, hits, "python everywhere")

	hits, err = svc.Retrieve(ctx, "python", "r1", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestGetDocumentsAndDeleteSubject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "first", Metadata{SubjectID: "r1", Type: TypeResume})
	require.NoError(t, err)
	_, err = svc.AddDocument(ctx, "second", Metadata{SubjectID: "r1", Type: TypeEntityResearch, Entity: "go"})
	require.NoError(t, err)

	docs, err := svc.GetDocuments(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, docs)

	require.NoError(t, svc.DeleteSubject(ctx, "r1"))
	docs, err = svc.GetDocuments(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRefreshDocumentReplacesWithinBound(t *testing.T) {
	svc, index := newTestService(t)
	ctx := context.Background()
	md := Metadata{SubjectID: "r1", Type: TypeEntityResearch, Entity: "acme corp"}

	require.NoError(t, index.Upsert(ctx, []Chunk{
		{ID: ChunkID(md, 0), SubjectID: "r1", Content: "old 0"},
		{ID: ChunkID(md, 1), SubjectID: "r1", Content: "old 1"},
		{ID: ChunkID(md, 5), SubjectID: "r1", Content: "beyond bound"},
	}))

	_, err := svc.RefreshDocument(ctx, "new research", md)
	require.NoError(t, err)

	docs, err := svc.GetDocuments(ctx, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"new research", "beyond bound"}, docs)
}

func TestEmbeddingFailureIsUnavailable(t *testing.T) {
	splitter, err := NewRecursiveSplitter(context.Background())
	require.NoError(t, err)
	svc := NewService(NewMemoryIndex(), failingEmbedder{}, splitter, Options{}, nil)

	_, err = svc.AddDocument(context.Background(), "text", Metadata{SubjectID: "r1"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Retrieve(context.Background(), "q", "r1", 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := HashEmbedder{Dim: 32}
	a, err := e.Embed(context.Background(), []string{"Go and SQL", "go and sql"})
	require.NoError(t, err)
	assert.Equal(t, a[0], a[1])
	assert.InDelta(t, 1.0, cosine(a[0], a[1]), 1e-6)
}
