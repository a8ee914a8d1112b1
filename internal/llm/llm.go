// Package llm wraps reasoning and embedding providers behind narrow interfaces.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnavailable marks failures of an external model call. Callers do not retry.
var ErrUnavailable = errors.New("reasoning service unavailable")

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("llm provider not configured")

// Request is one completion call.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Completer is implemented by every chat provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Unavailable wraps a provider error so it matches ErrUnavailable.
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, provider, err)
}

// Disabled fails every call. Used when LLM_PROVIDER=none.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", Unavailable("none", ErrNotConfigured)
}

func (Disabled) Model() string { return "none" }

// WithTimeout bounds every Complete call of c by d. A non-positive d returns c unchanged.
func WithTimeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return timeoutCompleter{Completer: c, d: d}
}

type timeoutCompleter struct {
	Completer
	d time.Duration
}

func (t timeoutCompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Completer.Complete(ctx, req)
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")

// ExtractJSON returns the first JSON object in a model response, tolerating code fences
// and surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := strings.TrimSpace(response)
	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start >= 0 && end > start && json.Valid([]byte(cleaned[start:end+1])) {
		return cleaned[start : end+1], nil
	}
	return "", errors.New("no valid JSON object in response")
}
