package entities

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/facts"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/resumes"
	"recommendation-backend/internal/shared/storage/gateway"
	"recommendation-backend/internal/shared/storage/object/local"
)

type fixture struct {
	svc     *Service
	resumes *resumes.Service
	context *contextstore.Service
	mock    *llm.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := local.New(t.TempDir())
	resumeSvc := &resumes.Service{
		Store:             store,
		Repo:              gateway.NewMemory[resumes.Resume](),
		Namespace:         uuid.MustParse("f495f8a0-fa6b-44b6-987d-c7277ad67973"),
		AllowedExtensions: []string{"pdf", "docx", "txt"},
		MaxSizeBytes:      2 << 20,
	}
	splitter, err := contextstore.NewRecursiveSplitter(context.Background())
	require.NoError(t, err)
	ctxSvc := contextstore.NewService(contextstore.NewMemoryIndex(), contextstore.HashEmbedder{Dim: 32}, splitter, contextstore.Options{}, nil)
	mock := &llm.Mock{}

	return &fixture{
		svc: &Service{
			Repo:     gateway.NewMemory[Record](),
			Resumes:  resumeSvc,
			Store:    store,
			Reasoner: mock,
			Context:  ctxSvc,
		},
		resumes: resumeSvc,
		context: ctxSvc,
		mock:    mock,
	}
}

func (f *fixture) upload(t *testing.T, body string) uuid.UUID {
	t.Helper()
	res, _, err := f.resumes.Save(context.Background(), "cv.txt", []byte(body))
	require.NoError(t, err)
	return res.FileID
}

func TestParseStoresFactsEntitiesAndContext(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := fx.upload(t, "Experience: Acme Corp. Skills: Python, Leadership.")

	fx.mock.ExtractFactsFunc = func(_ context.Context, text string) (facts.Facts, error) {
		assert.Contains(t, text, "Acme Corp")
		return facts.Facts{
			Skills:     []string{"Python", "Leadership"},
			Experience: []facts.Experience{{Company: "Acme Corp"}},
		}, nil
	}

	m, err := fx.svc.Parse(ctx, id, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme corp"}, texts(m[LabelOrg]))
	assert.Equal(t, []string{"python", "leadership"}, texts(m[LabelSkill]))
	assert.Equal(t, DefaultLanguage, m[LabelOrg][0].Language)

	stored, ok, err := fx.svc.Facts(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Python", "Leadership"}, stored.Skills)

	got, ok, err := fx.svc.GetEntities(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)

	chunks, err := fx.context.GetDocuments(ctx, id.String())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Acme Corp")
}

func TestParseFromTextSkipsReasoner(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, "Experience: Acme Corp. Skills: Python, Leadership.")

	m, err := fx.svc.Parse(context.Background(), id, ParseOptions{Source: SourceText, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 0, fx.mock.ExtractFactsCalls)
	assert.Equal(t, 3, m.Count())

	_, ok, err := fx.svc.Facts(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseUnknownResume(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Parse(context.Background(), uuid.New(), ParseOptions{})
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestParsePropagatesReasonerFailure(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, "Skills: Go")
	fx.mock.ExtractFactsFunc = func(context.Context, string) (facts.Facts, error) {
		return facts.Facts{}, llm.Unavailable("openai", fmt.Errorf("429"))
	}

	_, err := fx.svc.Parse(context.Background(), id, ParseOptions{})
	assert.ErrorIs(t, err, llm.ErrUnavailable)

	_, ok, err := fx.svc.GetEntities(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntityPathNeverTouchesFacts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, fx.svc.StoreFacts(ctx, id, facts.Facts{Name: "Ann", Skills: []string{"Go"}}))
	_, err := fx.svc.ExtractEntities(ctx, id, facts.Facts{Skills: []string{"Rust"}}, "en")
	require.NoError(t, err)

	stored, ok, err := fx.svc.Facts(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ann", stored.Name)

	m, _, err := fx.svc.GetEntities(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, texts(m[LabelSkill]))

	rows, err := fx.svc.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("resume_id", id)}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPurgeResumeRemovesRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, fx.svc.StoreEntities(ctx, id, Map{LabelSkill: {{Label: LabelSkill, Text: "go"}}}))

	require.NoError(t, fx.svc.PurgeResume(ctx, id))
	_, ok, err := fx.svc.GetEntities(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
