package llm

import (
	"context"
	"sync"

	"recommendation-backend/internal/facts"
)

// Mock is a configurable Reasoner for tests. Nil funcs return zero values.
type Mock struct {
	ExtractFactsFunc     func(ctx context.Context, text string) (facts.Facts, error)
	ResearchEntitiesFunc func(ctx context.Context, entities []string) (map[string]string, error)
	GenerateLetterFunc   func(ctx context.Context, in LetterInput) (string, error)

	mu                    sync.Mutex
	ExtractFactsCalls     int
	ResearchEntitiesCalls int
	GenerateLetterCalls   int
	LastLetterInput       LetterInput
}

func (m *Mock) ExtractFacts(ctx context.Context, text string) (facts.Facts, error) {
	m.mu.Lock()
	m.ExtractFactsCalls++
	m.mu.Unlock()
	if m.ExtractFactsFunc != nil {
		return m.ExtractFactsFunc(ctx, text)
	}
	return facts.Facts{}, nil
}

func (m *Mock) ResearchEntities(ctx context.Context, entities []string) (map[string]string, error) {
	m.mu.Lock()
	m.ResearchEntitiesCalls++
	m.mu.Unlock()
	if m.ResearchEntitiesFunc != nil {
		return m.ResearchEntitiesFunc(ctx, entities)
	}
	return map[string]string{}, nil
}

func (m *Mock) GenerateLetter(ctx context.Context, in LetterInput) (string, error) {
	m.mu.Lock()
	m.GenerateLetterCalls++
	m.LastLetterInput = in
	m.mu.Unlock()
	if m.GenerateLetterFunc != nil {
		return m.GenerateLetterFunc(ctx, in)
	}
	return "", nil
}

var _ Reasoner = (*Mock)(nil)

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (CompleterFunc) Model() string { return "func" }
