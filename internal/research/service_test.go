package research

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/entities"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/selections"
	"recommendation-backend/internal/shared/storage/gateway"
)

type fixture struct {
	svc        *Service
	selections *selections.Service
	context    *contextstore.Service
	index      *contextstore.MemoryIndex
	mock       *llm.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	splitter, err := contextstore.NewRecursiveSplitter(context.Background())
	require.NoError(t, err)
	index := contextstore.NewMemoryIndex()
	ctxSvc := contextstore.NewService(index, contextstore.HashEmbedder{Dim: 32}, splitter, contextstore.Options{}, nil)
	mock := &llm.Mock{}

	svc := &Service{
		Repo:     gateway.NewMemory[Research](),
		Reasoner: mock,
		Context:  ctxSvc,
	}
	sel := &selections.Service{Repo: gateway.NewMemory[selections.Selection](), Research: svc}
	svc.Selections = sel
	return &fixture{svc: svc, selections: sel, context: ctxSvc, index: index, mock: mock}
}

func echoResearch(_ context.Context, batch []string) (map[string]string, error) {
	out := make(map[string]string, len(batch))
	for _, e := range batch {
		out[e] = "notes on " + e
	}
	return out, nil
}

func selectAll(t *testing.T, fx *fixture, id uuid.UUID, label string, texts ...string) {
	t.Helper()
	m := entities.Map{}
	for _, text := range texts {
		m[label] = append(m[label], entities.Entity{Label: label, Text: text})
	}
	_, err := fx.selections.Replace(context.Background(), id, m)
	require.NoError(t, err)
}

func TestResearchWithoutSelectionsSkipsReasoner(t *testing.T) {
	fx := newFixture(t)
	out, err := fx.svc.Research(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, fx.mock.ResearchEntitiesCalls)
}

func TestResearchStoresMarksAndIndexes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	selectAll(t, fx, id, entities.LabelSkill, "python", "leadership")
	fx.mock.ResearchEntitiesFunc = echoResearch

	out, err := fx.svc.Research(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"python": "notes on python", "leadership": "notes on leadership"}, out)

	rows, err := fx.selections.List(ctx, id)
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.Researched, r.Entity)
	}

	chunks, err := fx.context.GetDocuments(ctx, id.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"notes on python", "notes on leadership"}, chunks)

	// second call has nothing pending but still reports earlier research
	out, err = fx.svc.Research(ctx, id)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, fx.mock.ResearchEntitiesCalls)
}

func TestResearchLeavesMissingEntitiesPending(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	selectAll(t, fx, id, entities.LabelSkill, "go", "cobol")

	fx.mock.ResearchEntitiesFunc = func(context.Context, []string) (map[string]string, error) {
		return map[string]string{"go": "notes on go", "unknown": "ignored"}, nil
	}
	out, err := fx.svc.Research(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"go": "notes on go"}, out)

	var batches [][]string
	fx.mock.ResearchEntitiesFunc = func(ctx context.Context, batch []string) (map[string]string, error) {
		batches = append(batches, batch)
		return echoResearch(ctx, batch)
	}
	out, err = fx.svc.Research(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"cobol"}}, batches)
	assert.Len(t, out, 2)
}

func TestResearchUpsertKeepsOneRowPerEntity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	selectAll(t, fx, id, entities.LabelSkill, "go")
	fx.mock.ResearchEntitiesFunc = echoResearch

	_, err := fx.svc.Research(ctx, id)
	require.NoError(t, err)

	rows, err := fx.selections.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, fx.svc.store(ctx, id, rows[0].ID, "go", "revised notes"))

	stored, err := fx.svc.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("resume_id", id)}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "revised notes", stored[0].Research)

	rows, err = fx.selections.List(ctx, id)
	require.NoError(t, err)
	assert.True(t, rows[0].Researched)
}

func TestResearchResultIsCapped(t *testing.T) {
	fx := newFixture(t)
	fx.svc.ResultLimit = 3
	ctx := context.Background()
	id := uuid.New()

	var texts []string
	for i := 0; i < 5; i++ {
		texts = append(texts, fmt.Sprintf("skill %d", i))
	}
	selectAll(t, fx, id, entities.LabelSkill, texts...)
	fx.mock.ResearchEntitiesFunc = echoResearch

	out, err := fx.svc.Research(ctx, id)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	all, err := fx.svc.All(ctx, id)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestResearchFailureIsNotRetried(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	selectAll(t, fx, id, entities.LabelSkill, "go")
	fx.mock.ResearchEntitiesFunc = func(context.Context, []string) (map[string]string, error) {
		return nil, llm.Unavailable("openai", errors.New("timeout"))
	}

	_, err := fx.svc.Research(ctx, id)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Equal(t, 1, fx.mock.ResearchEntitiesCalls)
}

func TestReselectingDropsResearch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := uuid.New()
	selectAll(t, fx, id, entities.LabelSkill, "go")
	fx.mock.ResearchEntitiesFunc = echoResearch
	_, err := fx.svc.Research(ctx, id)
	require.NoError(t, err)

	selectAll(t, fx, id, entities.LabelSkill, "rust")
	all, err := fx.svc.All(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, all)
}
