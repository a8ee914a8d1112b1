package letters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/facts"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/storage/gateway"
	"recommendation-backend/internal/shared/storage/object"
)

// ListLimit caps ListByResume.
const ListLimit = 100

// Retrieval queries per role.
const (
	PrincipalQuery = "Key strengths, achievements, and professional background to recommend."
	GranteeQuery   = "Key achievements, skills, and potential for recommendation."
)

// Research map roles.
const (
	RolePrincipal = "principal"
	RoleGrantee   = "grantee"
)

var (
	ErrNotFound      = errors.New("letter not found")
	ErrFactsNotFound = errors.New("resume facts not found")
	ErrInvalidType   = errors.New("recommendation type must be enrollment, job or visa")
)

var letterTypes = map[string]bool{"enrollment": true, "job": true, "visa": true}

// FactsSource resolves stored resume facts.
type FactsSource interface {
	Facts(ctx context.Context, resumeID uuid.UUID) (facts.Facts, bool, error)
}

// ResearchSource lists every research result of a resume.
type ResearchSource interface {
	All(ctx context.Context, resumeID uuid.UUID) (map[string]string, error)
}

// Retriever ranks context chunks of a subject against a query.
type Retriever interface {
	Retrieve(ctx context.Context, query, subjectID string, k int) ([]string, error)
}

// Party is one side of a recommendation.
type Party struct {
	Name     string
	ResumeID uuid.UUID
}

// Request describes the letter to generate. Principal recommends Grantee.
type Request struct {
	Principal     Party
	Grantee       Party
	Circumstances string
	Type          string
	Directives    string
}

// Service generates, stores and serves recommendation letters.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Facts    FactsSource
	Research ResearchSource
	Context  Retriever
	Reasoner llm.Reasoner
	Now      func() time.Time
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Generate composes both resumes' facts, research and context into a letter,
// renders it and records it under the grantee's resume.
func (s *Service) Generate(ctx context.Context, req Request) (letter Letter, err error) {
	start := time.Now()
	defer func() { s.Metrics.Observe(metrics.StageLetter, start, err) }()

	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if !letterTypes[kind] {
		return Letter{}, ErrInvalidType
	}

	principalFacts, err := s.requireFacts(ctx, req.Principal.ResumeID)
	if err != nil {
		return Letter{}, err
	}
	granteeFacts, err := s.requireFacts(ctx, req.Grantee.ResumeID)
	if err != nil {
		return Letter{}, err
	}

	principalResearch, err := s.Research.All(ctx, req.Principal.ResumeID)
	if err != nil {
		return Letter{}, err
	}
	granteeResearch, err := s.Research.All(ctx, req.Grantee.ResumeID)
	if err != nil {
		return Letter{}, err
	}

	principalContext, err := s.retrieve(ctx, PrincipalQuery, req.Principal.ResumeID)
	if err != nil {
		return Letter{}, err
	}
	granteeContext, err := s.retrieve(ctx, GranteeQuery, req.Grantee.ResumeID)
	if err != nil {
		return Letter{}, err
	}

	text, err := s.Reasoner.GenerateLetter(ctx, llm.LetterInput{
		PrincipalName:    req.Principal.Name,
		GranteeName:      req.Grantee.Name,
		PrincipalFacts:   principalFacts,
		GranteeFacts:     granteeFacts,
		PrincipalContext: principalContext,
		GranteeContext:   granteeContext,
		Type:             kind,
		Directives:       req.Directives,
		Circumstances:    req.Circumstances,
		Research: map[string]map[string]string{
			RolePrincipal: principalResearch,
			RoleGrantee:   granteeResearch,
		},
		CurrentDate: s.now().Format(time.DateOnly),
	})
	if err != nil {
		return Letter{}, err
	}

	doc, err := RenderDOCX(text)
	if err != nil {
		return Letter{}, fmt.Errorf("render letter: %w", err)
	}

	letter = Letter{
		LetterID:      uuid.New(),
		ResumeID:      req.Grantee.ResumeID,
		Filename:      "Recommendation Letter for " + cases.Title(language.English).String(kind),
		FileExtension: "docx",
	}
	if _, err := s.Store.Put(ctx, letter.Key(), ContentType, bytes.NewReader(doc)); err != nil {
		return Letter{}, fmt.Errorf("store letter: %w", err)
	}
	if _, err := s.Repo.Create(ctx, &letter); err != nil {
		return Letter{}, fmt.Errorf("record letter: %w", err)
	}

	s.logger().Info("letter.generated",
		zap.String("letter_id", letter.LetterID.String()),
		zap.String("principal_id", req.Principal.ResumeID.String()),
		zap.String("grantee_id", req.Grantee.ResumeID.String()),
		zap.String("type", kind),
		zap.Int("paragraphs", len(Paragraphs(text))),
	)
	return letter, nil
}

func (s *Service) requireFacts(ctx context.Context, resumeID uuid.UUID) (facts.Facts, error) {
	f, ok, err := s.Facts.Facts(ctx, resumeID)
	if err != nil {
		return facts.Facts{}, err
	}
	if !ok {
		return facts.Facts{}, fmt.Errorf("%w: %s", ErrFactsNotFound, resumeID)
	}
	return f, nil
}

func (s *Service) retrieve(ctx context.Context, query string, resumeID uuid.UUID) (string, error) {
	if s.Context == nil {
		return "", nil
	}
	chunks, err := s.Context.Retrieve(ctx, query, resumeID.String(), contextstore.DefaultTopK)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(chunks, "\n\n")), nil
}

// Get returns the metadata of a letter.
func (s *Service) Get(ctx context.Context, letterID uuid.UUID) (Letter, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("letter_id", letterID)}, Limit: 1})
	if err != nil {
		return Letter{}, fmt.Errorf("find letter: %w", err)
	}
	if len(rows) == 0 {
		return Letter{}, ErrNotFound
	}
	return rows[0], nil
}

// Open returns the letter and a reader over its document. Callers close the reader.
func (s *Service) Open(ctx context.Context, letterID uuid.UUID) (Letter, io.ReadCloser, error) {
	letter, err := s.Get(ctx, letterID)
	if err != nil {
		return Letter{}, nil, err
	}
	rc, err := s.Store.Open(ctx, letter.Key())
	if errors.Is(err, object.ErrNotFound) {
		return Letter{}, nil, ErrNotFound
	}
	if err != nil {
		return Letter{}, nil, fmt.Errorf("open letter: %w", err)
	}
	return letter, rc, nil
}

// Delete removes the record and the document. Either being absent is not an error.
func (s *Service) Delete(ctx context.Context, letterID uuid.UUID) error {
	if _, _, err := s.Repo.DeleteBy(ctx, gateway.Eq("letter_id", letterID)); err != nil {
		return fmt.Errorf("delete letter: %w", err)
	}
	if err := s.Store.Delete(ctx, Key(letterID)); err != nil {
		return fmt.Errorf("delete letter file: %w", err)
	}
	return nil
}

// ListByResume returns the newest letters owned by a grantee resume.
func (s *Service) ListByResume(ctx context.Context, resumeID uuid.UUID) ([]Letter, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("resume_id", resumeID)},
		Limit:   ListLimit,
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	return rows, nil
}

// PurgeResume deletes every letter owned by the resume, records and documents.
func (s *Service) PurgeResume(ctx context.Context, resumeID uuid.UUID) error {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("resume_id", resumeID)}})
	if err != nil {
		return fmt.Errorf("list letters: %w", err)
	}
	for _, l := range rows {
		if err := s.Store.Delete(ctx, l.Key()); err != nil {
			return fmt.Errorf("delete letter file: %w", err)
		}
	}
	if _, err := s.Repo.DeleteAllBy(ctx, gateway.Eq("resume_id", resumeID)); err != nil {
		return fmt.Errorf("delete letters: %w", err)
	}
	return nil
}
