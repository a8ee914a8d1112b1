package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestJoinCandidatesSkipsEmptyParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " first "}, nil, {Text: ""}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}
	if got := joinCandidates(resp); got != "first\nsecond" {
		t.Fatalf("joinCandidates = %q", got)
	}
	if got := joinCandidates(nil); got != "" {
		t.Fatalf("expected empty output for nil response, got %q", got)
	}
}
