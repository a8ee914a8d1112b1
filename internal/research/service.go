package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/llm"
	"recommendation-backend/internal/selections"
	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/storage/gateway"
)

// DefaultResultLimit caps the mapping returned by Research.
const DefaultResultLimit = 10

// Selections is the part of the selection manager research drives.
type Selections interface {
	List(ctx context.Context, resumeID uuid.UUID) ([]selections.Selection, error)
	MarkResearched(ctx context.Context, id int64) error
}

// ContextAdder indexes research text for retrieval.
type ContextAdder interface {
	AddDocument(ctx context.Context, text string, md contextstore.Metadata) ([]string, error)
}

// Service researches the selected entities of a resume.
type Service struct {
	Repo       Repo
	Selections Selections
	Reasoner   llm.Reasoner
	Context    ContextAdder
	// ResultLimit caps the mapping returned by Research. Zero means DefaultResultLimit.
	ResultLimit int
	Metrics     *metrics.Recorder
	Logger      *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Research sends every unresearched selection to the reasoning model in one batch,
// stores and indexes what comes back, and returns entity text to research text for
// up to ResultLimit researched entities. Entities missing from the answer stay
// unresearched and are retried on the next call.
func (s *Service) Research(ctx context.Context, resumeID uuid.UUID) (out map[string]string, err error) {
	start := time.Now()
	defer func() { s.Metrics.Observe(metrics.StageResearch, start, err) }()

	all, err := s.Selections.List(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return map[string]string{}, nil
	}

	pending := make(map[string]int64)
	var batch []string
	for _, sel := range all {
		if sel.Researched {
			continue
		}
		if _, seen := pending[sel.Entity]; !seen {
			batch = append(batch, sel.Entity)
		}
		pending[sel.Entity] = sel.ID
	}

	if len(batch) > 0 {
		found, err := s.Reasoner.ResearchEntities(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, entity := range batch {
			text, ok := found[entity]
			if !ok {
				continue
			}
			if err := s.store(ctx, resumeID, pending[entity], entity, text); err != nil {
				return nil, err
			}
		}
		s.logger().Info("research.completed",
			zap.String("resume_id", resumeID.String()),
			zap.Int("requested", len(batch)),
			zap.Int("returned", len(found)),
		)
	}

	return s.load(ctx, resumeID, s.resultLimit())
}

func (s *Service) store(ctx context.Context, resumeID uuid.UUID, selectionID int64, entity, text string) error {
	row := &Research{ResumeID: resumeID, EntityID: selectionID, Research: text}
	if _, err := s.Repo.Upsert(ctx, row, "resume_id", "entity_id"); err != nil {
		return fmt.Errorf("upsert research: %w", err)
	}
	if err := s.Selections.MarkResearched(ctx, selectionID); err != nil {
		return err
	}
	if s.Context == nil {
		return nil
	}
	_, err := s.Context.AddDocument(ctx, text, contextstore.Metadata{
		SubjectID: resumeID.String(),
		Type:      contextstore.TypeEntityResearch,
		Entity:    entity,
	})
	return err
}

// All returns entity text to research text for every research row of the resume.
func (s *Service) All(ctx context.Context, resumeID uuid.UUID) (map[string]string, error) {
	return s.load(ctx, resumeID, 0)
}

// load joins research rows to their selections. limit <= 0 loads everything.
func (s *Service) load(ctx context.Context, resumeID uuid.UUID, limit int) (map[string]string, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("resume_id", resumeID)},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load research: %w", err)
	}
	out := make(map[string]string, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	sels, err := s.Selections.List(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	entityByID := make(map[int64]string, len(sels))
	for _, sel := range sels {
		entityByID[sel.ID] = sel.Entity
	}
	for _, r := range rows {
		if entity, ok := entityByID[r.EntityID]; ok {
			out[entity] = r.Research
		}
	}
	return out, nil
}

// PurgeResume deletes every research row of the resume.
func (s *Service) PurgeResume(ctx context.Context, resumeID uuid.UUID) error {
	_, err := s.Repo.DeleteAllBy(ctx, gateway.Eq("resume_id", resumeID))
	return err
}

func (s *Service) resultLimit() int {
	if s.ResultLimit <= 0 {
		return DefaultResultLimit
	}
	return s.ResultLimit
}
