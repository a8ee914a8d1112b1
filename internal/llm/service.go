package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recommendation-backend/internal/facts"
)

// LetterInput carries everything the letter prompt needs.
type LetterInput struct {
	PrincipalName    string
	GranteeName      string
	PrincipalFacts   facts.Facts
	GranteeFacts     facts.Facts
	PrincipalContext string
	GranteeContext   string
	Type             string
	Directives       string
	Circumstances    string
	// Research is keyed by role ("principal", "grantee"), then entity text.
	Research    map[string]map[string]string
	CurrentDate string
}

// Reasoner is the reasoning capability used by the pipeline.
type Reasoner interface {
	ExtractFacts(ctx context.Context, text string) (facts.Facts, error)
	ResearchEntities(ctx context.Context, entities []string) (map[string]string, error)
	GenerateLetter(ctx context.Context, in LetterInput) (string, error)
}

// Service implements Reasoner over any Completer.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// NewService builds a Reasoner.
func NewService(completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, logger: logger.Named("llm")}
}

func (s *Service) complete(ctx context.Context, op string, req Request) (string, error) {
	start := time.Now()
	out, err := s.completer.Complete(ctx, req)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("model", s.completer.Model()),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Error("llm.call_failed", append(fields, zap.Error(err))...)
		if !errors.Is(err, ErrUnavailable) {
			err = Unavailable(s.completer.Model(), err)
		}
		return "", err
	}
	s.logger.Info("llm.call", append(fields, zap.Int("response_len", len(out)))...)
	return out, nil
}

// ExtractFacts asks the model for structured facts about a resume text.
func (s *Service) ExtractFacts(ctx context.Context, text string) (facts.Facts, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return facts.Facts{}, errors.New("resume text is empty")
	}
	out, err := s.complete(ctx, "extract_facts", Request{
		System: systemJSON,
		Prompt: render(factsPrompt, "{{RESUME_TEXT}}", text),
		JSON:   true,
	})
	if err != nil {
		return facts.Facts{}, err
	}
	raw, err := ExtractJSON(out)
	if err != nil {
		return facts.Facts{}, Unavailable(s.completer.Model(), err)
	}
	f, err := facts.Parse(raw)
	if err != nil {
		return facts.Facts{}, Unavailable(s.completer.Model(), err)
	}
	return f, nil
}

// ResearchEntities researches a batch of entity texts in one call. Entities the model
// skipped are absent from the result. Keys always use the caller's spelling.
func (s *Service) ResearchEntities(ctx context.Context, entities []string) (map[string]string, error) {
	result := map[string]string{}
	if len(entities) == 0 {
		return result, nil
	}
	list, err := json.Marshal(entities)
	if err != nil {
		return nil, err
	}
	out, err := s.complete(ctx, "research_entities", Request{
		System: systemJSON,
		Prompt: render(researchPrompt, "{{ENTITIES}}", string(list)),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	raw, err := ExtractJSON(out)
	if err != nil {
		return nil, Unavailable(s.completer.Model(), err)
	}
	var notes map[string]string
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, Unavailable(s.completer.Model(), fmt.Errorf("decode research: %w", err))
	}

	byKey := make(map[string]string, len(entities))
	for _, e := range entities {
		byKey[strings.ToLower(strings.TrimSpace(e))] = e
	}
	for k, v := range notes {
		entity, ok := byKey[strings.ToLower(strings.TrimSpace(k))]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		result[entity] = strings.TrimSpace(v)
	}
	return result, nil
}

// GenerateLetter writes the letter text; paragraphs are separated by blank lines.
func (s *Service) GenerateLetter(ctx context.Context, in LetterInput) (string, error) {
	principal, err := json.Marshal(in.PrincipalFacts)
	if err != nil {
		return "", err
	}
	grantee, err := json.Marshal(in.GranteeFacts)
	if err != nil {
		return "", err
	}
	research, err := json.Marshal(in.Research)
	if err != nil {
		return "", err
	}
	out, err := s.complete(ctx, "generate_letter", Request{
		System: systemLetter,
		Prompt: render(letterPrompt,
			"{{TYPE}}", in.Type,
			"{{CURRENT_DATE}}", in.CurrentDate,
			"{{PRINCIPAL_NAME}}", orNA(in.PrincipalName),
			"{{GRANTEE_NAME}}", orNA(in.GranteeName),
			"{{PRINCIPAL_FACTS}}", string(principal),
			"{{GRANTEE_FACTS}}", string(grantee),
			"{{PRINCIPAL_CONTEXT}}", orNA(in.PrincipalContext),
			"{{GRANTEE_CONTEXT}}", orNA(in.GranteeContext),
			"{{RESEARCH}}", string(research),
			"{{CIRCUMSTANCES}}", orNA(in.Circumstances),
			"{{DIRECTIVES}}", orNA(in.Directives),
		),
	})
	if err != nil {
		return "", err
	}
	letter := strings.TrimSpace(out)
	if letter == "" {
		return "", Unavailable(s.completer.Model(), errors.New("empty letter"))
	}
	return letter, nil
}

var _ Reasoner = (*Service)(nil)
