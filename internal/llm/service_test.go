package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendation-backend/internal/facts"
)

func TestExtractFactsDecodesFencedJSON(t *testing.T) {
	var seen Request
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		seen = req
		return "```json\n{\"skills\":[\"Python\"],\"experience\":[{\"company\":\"Acme Corp\"}]}\n```", nil
	}), nil)

	f, err := svc.ExtractFacts(context.Background(), "Experience: Acme Corp. Skills: Python.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Python"}, f.Skills)
	assert.Equal(t, "Acme Corp", f.Experience[0].Company)
	assert.True(t, seen.JSON)
	assert.Contains(t, seen.Prompt, "Experience: Acme Corp. Skills: Python.")
}

func TestExtractFactsWrapsProviderFailure(t *testing.T) {
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		return "", errors.New("connection reset")
	}), nil)

	_, err := svc.ExtractFacts(context.Background(), "text")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExtractFactsRejectsEmptyText(t *testing.T) {
	calls := 0
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "{}", nil
	}), nil)
	_, err := svc.ExtractFacts(context.Background(), "   ")
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestResearchEntitiesKeepsCallerSpelling(t *testing.T) {
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		assert.Contains(t, req.Prompt, `["acme corp","python"]`)
		return `{"Acme Corp": "A manufacturer.", "python": "A language.", "unknown": "ignored"}`, nil
	}), nil)

	got, err := svc.ResearchEntities(context.Background(), []string{"acme corp", "python"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acme corp": "A manufacturer.", "python": "A language."}, got)
}

func TestResearchEntitiesSkipsCallForEmptyBatch(t *testing.T) {
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		t.Fatal("no call expected")
		return "", nil
	}), nil)
	got, err := svc.ResearchEntities(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateLetterFillsPrompt(t *testing.T) {
	var prompt string
	svc := NewService(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		prompt = req.Prompt
		return "\n2024-05-01\n\nDear committee,\n\nBody.\n", nil
	}), nil)

	letter, err := svc.GenerateLetter(context.Background(), LetterInput{
		GranteeName:    "Jane",
		GranteeFacts:   facts.Facts{Skills: []string{"Go"}},
		Type:           "job",
		CurrentDate:    "2024-05-01",
		Research:       map[string]map[string]string{"grantee": {"go": "A language."}},
		PrincipalFacts: facts.Facts{Name: "Bob"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(letter, "2024-05-01"))
	assert.Contains(t, prompt, "Write a job recommendation letter dated 2024-05-01.")
	assert.Contains(t, prompt, "Principal name: N/A")
	assert.Contains(t, prompt, `{"grantee":{"go":"A language."}}`)
	assert.NotContains(t, prompt, "{{")
}

func TestDisabledIsUnavailable(t *testing.T) {
	_, err := NewService(Disabled{}, nil).GenerateLetter(context.Background(), LetterInput{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWithTimeoutBoundsCompletion(t *testing.T) {
	slow := CompleterFunc(func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(slow, 10*time.Millisecond).Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, "func", WithTimeout(slow, 0).Model())
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("Here you go: {\"a\": 1} thanks")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, got)

	_, err = ExtractJSON("nothing here")
	assert.Error(t, err)
}
