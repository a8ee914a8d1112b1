package entities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/extract"
	"recommendation-backend/internal/facts"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/resumes"
	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/storage/gateway"
	"recommendation-backend/internal/shared/storage/object"
)

var (
	ErrResumeNotFound = errors.New("resume file not found")
	ErrNoText         = errors.New("resume has no extractable text")
)

// Sources accepted by Parse.
const (
	SourceLLM  = "llm"
	SourceText = "text"
)

// Resumes resolves stored resume files.
type Resumes interface {
	Get(ctx context.Context, id uuid.UUID) (resumes.Resume, error)
}

// ContextIndexer replaces a document in the context store.
type ContextIndexer interface {
	RefreshDocument(ctx context.Context, text string, md contextstore.Metadata) ([]string, error)
}

// ParseOptions tune Parse.
type ParseOptions struct {
	Source   string
	Language string
}

// Service owns the NER record of each resume.
type Service struct {
	Repo     Repo
	Resumes  Resumes
	Store    object.ObjectStore
	Reasoner llm.Reasoner
	Context  ContextIndexer
	// Language tags entities when a request does not name one.
	Language string
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) find(ctx context.Context, resumeID uuid.UUID) (*Record, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{Filters: []gateway.Filter{gateway.Eq("resume_id", resumeID)}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("find ner record: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// StoreFacts sets the facts of the resume's record, creating it with no entities if needed.
func (s *Service) StoreFacts(ctx context.Context, resumeID uuid.UUID, f facts.Facts) error {
	rec, err := s.find(ctx, resumeID)
	if err != nil {
		return err
	}
	if rec != nil {
		if _, err := s.Repo.Update(ctx, rec.ID, gateway.Values{"facts": &f}); err != nil {
			return fmt.Errorf("update facts: %w", err)
		}
		return nil
	}
	if _, err := s.Repo.Create(ctx, &Record{ResumeID: resumeID, Facts: &f, Entities: Map{}}); err != nil {
		return fmt.Errorf("create ner record: %w", err)
	}
	return nil
}

// StoreEntities sets the entities of the resume's record. Facts are left untouched.
func (s *Service) StoreEntities(ctx context.Context, resumeID uuid.UUID, m Map) error {
	rec, err := s.find(ctx, resumeID)
	if err != nil {
		return err
	}
	if rec != nil {
		if _, err := s.Repo.Update(ctx, rec.ID, gateway.Values{"entities": m}); err != nil {
			return fmt.Errorf("update entities: %w", err)
		}
		return nil
	}
	if _, err := s.Repo.Create(ctx, &Record{ResumeID: resumeID, Entities: m}); err != nil {
		return fmt.Errorf("create ner record: %w", err)
	}
	return nil
}

// ExtractEntities derives entities from f and persists them for the resume.
func (s *Service) ExtractEntities(ctx context.Context, resumeID uuid.UUID, f facts.Facts, lang string) (Map, error) {
	lang, err := ParseLanguage(lang, s.defaultLanguage())
	if err != nil {
		return nil, err
	}
	m := Extract(f, lang)
	if err := s.StoreEntities(ctx, resumeID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetEntities returns the stored entities. ok is false when the resume was never parsed.
func (s *Service) GetEntities(ctx context.Context, resumeID uuid.UUID) (m Map, ok bool, err error) {
	rec, err := s.find(ctx, resumeID)
	if err != nil || rec == nil {
		return nil, false, err
	}
	if rec.Entities == nil {
		return Map{}, true, nil
	}
	return rec.Entities, true, nil
}

// Facts returns the stored facts. ok is false when none were extracted.
func (s *Service) Facts(ctx context.Context, resumeID uuid.UUID) (f facts.Facts, ok bool, err error) {
	rec, err := s.find(ctx, resumeID)
	if err != nil || rec == nil || rec.Facts == nil {
		return facts.Facts{}, false, err
	}
	return *rec.Facts, true, nil
}

// Parse runs the resume pipeline: text extraction, facts, context indexing and entities.
// With SourceText the reasoning model is skipped and entities come from the raw text.
func (s *Service) Parse(ctx context.Context, resumeID uuid.UUID, opts ParseOptions) (m Map, err error) {
	start := time.Now()
	defer func() { s.Metrics.Observe(metrics.StageParse, start, err) }()

	lang, err := ParseLanguage(opts.Language, s.defaultLanguage())
	if err != nil {
		return nil, err
	}

	res, err := s.Resumes.Get(ctx, resumeID)
	if errors.Is(err, resumes.ErrNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, err
	}
	text, err := extract.FromStore(ctx, s.Store, res.Key(), res.FileExtension)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	log := s.logger().With(zap.String("resume_id", resumeID.String()), zap.String("source", sourceOrDefault(opts.Source)))

	if opts.Source == SourceText {
		if err := s.refreshContext(ctx, resumeID, text); err != nil {
			return nil, err
		}
		m = FromText(text, lang)
		if err := s.StoreEntities(ctx, resumeID, m); err != nil {
			return nil, err
		}
		log.Info("resume.parsed", zap.Int("entities", m.Count()))
		return m, nil
	}

	f, err := s.Reasoner.ExtractFacts(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.StoreFacts(ctx, resumeID, f); err != nil {
		return nil, err
	}
	if err := s.refreshContext(ctx, resumeID, text); err != nil {
		return nil, err
	}
	m, err = s.ExtractEntities(ctx, resumeID, f, lang)
	if err != nil {
		return nil, err
	}
	log.Info("resume.parsed", zap.Int("entities", m.Count()))
	return m, nil
}

func (s *Service) refreshContext(ctx context.Context, resumeID uuid.UUID, text string) error {
	if s.Context == nil {
		return nil
	}
	_, err := s.Context.RefreshDocument(ctx, text, contextstore.Metadata{
		SubjectID: resumeID.String(),
		Type:      contextstore.TypeResume,
	})
	return err
}

// PurgeResume deletes the resume's NER record.
func (s *Service) PurgeResume(ctx context.Context, resumeID uuid.UUID) error {
	_, err := s.Repo.DeleteAllBy(ctx, gateway.Eq("resume_id", resumeID))
	return err
}

func (s *Service) defaultLanguage() string {
	if s.Language == "" {
		return DefaultLanguage
	}
	return s.Language
}

func sourceOrDefault(src string) string {
	if src == "" {
		return SourceLLM
	}
	return src
}
