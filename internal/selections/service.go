package selections

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommendation-backend/internal/entities"
	"recommendation-backend/internal/resumes"
	"recommendation-backend/internal/shared/storage/gateway"
)

// ListLimit caps List.
const ListLimit = 1000

var ErrEmptySelection = errors.New("entity list cannot be empty")

// Service manages the research selections of each resume.
type Service struct {
	Repo Repo
	// Research drops research rows that hang off replaced selections.
	Research resumes.Purger
	Logger   *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Replace swaps every selection of the resume for one row per entity in m, all unresearched.
func (s *Service) Replace(ctx context.Context, resumeID uuid.UUID, m entities.Map) ([]int64, error) {
	rows := make([]*Selection, 0, m.Count())
	for _, label := range slices.Sorted(maps.Keys(m)) {
		for _, e := range m[label] {
			text := strings.TrimSpace(e.Text)
			if text == "" {
				continue
			}
			entityType := e.Label
			if entityType == "" {
				entityType = label
			}
			rows = append(rows, &Selection{ResumeID: resumeID, Entity: text, EntityType: entityType})
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptySelection
	}

	ids, err := s.Repo.Replace(ctx, []gateway.Filter{gateway.Eq("resume_id", resumeID)}, rows)
	if err != nil {
		return nil, fmt.Errorf("replace selections: %w", err)
	}
	// Research rows of the old selections are unreachable once those rows are gone,
	// so a failed purge only leaves orphans for the next one.
	if s.Research != nil {
		if err := s.Research.PurgeResume(ctx, resumeID); err != nil {
			s.logger().Warn("selections.research_purge_failed", zap.String("resume_id", resumeID.String()), zap.Error(err))
		}
	}
	s.logger().Info("selections.replaced", zap.String("resume_id", resumeID.String()), zap.Int("count", len(ids)))
	return ids, nil
}

// List returns up to ListLimit selections of the resume.
func (s *Service) List(ctx context.Context, resumeID uuid.UUID) ([]Selection, error) {
	rows, err := s.Repo.FindAllBy(ctx, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("resume_id", resumeID)},
		Limit:   ListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return rows, nil
}

// Grouped returns the selections keyed by entity type.
func (s *Service) Grouped(ctx context.Context, resumeID uuid.UUID) (entities.Map, error) {
	rows, err := s.List(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	out := entities.Map{}
	for _, r := range rows {
		out[r.EntityType] = append(out[r.EntityType], entities.Entity{Label: r.EntityType, Text: r.Entity})
	}
	return out, nil
}

// MarkResearched flags one selection as researched.
func (s *Service) MarkResearched(ctx context.Context, id int64) error {
	if _, err := s.Repo.Update(ctx, id, gateway.Values{"researched": true}); err != nil {
		return fmt.Errorf("mark researched: %w", err)
	}
	return nil
}

// PurgeResume deletes every selection of the resume.
func (s *Service) PurgeResume(ctx context.Context, resumeID uuid.UUID) error {
	_, err := s.Repo.DeleteAllBy(ctx, gateway.Eq("resume_id", resumeID))
	return err
}
