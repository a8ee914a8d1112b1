package selections

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"recommendation-backend/internal/shared/storage/gateway"
)

// Selection is one entity a user chose to research.
type Selection struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	ResumeID   uuid.UUID `gorm:"column:resume_id"`
	Entity     string    `gorm:"column:entity"`
	EntityType string    `gorm:"column:entity_type"`
	Researched bool      `gorm:"column:researched"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Selection) TableName() string { return "ner_entity_selection" }

func (s *Selection) PrimaryKey() int64      { return s.ID }
func (s *Selection) SetPrimaryKey(id int64) { s.ID = id }
func (s *Selection) Columns() []string {
	return []string{"resume_id", "entity", "entity_type", "researched"}
}

func (s *Selection) Touch(now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

func (s *Selection) Column(name string) (any, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "resume_id":
		return s.ResumeID, true
	case "entity":
		return s.Entity, true
	case "entity_type":
		return s.EntityType, true
	case "researched":
		return s.Researched, true
	case "created_at":
		return s.CreatedAt, true
	case "updated_at":
		return s.UpdatedAt, true
	}
	return nil, false
}

func (s *Selection) SetColumn(name string, value any) error {
	var ok bool
	switch name {
	case "resume_id":
		s.ResumeID, ok = value.(uuid.UUID)
	case "entity":
		s.Entity, ok = value.(string)
	case "entity_type":
		s.EntityType, ok = value.(string)
	case "researched":
		s.Researched, ok = value.(bool)
	case "updated_at":
		s.UpdatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("ner_entity_selection: unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("ner_entity_selection: bad value %T for %q", value, name)
	}
	return nil
}

// Repo persists Selections.
type Repo = gateway.Gateway[Selection, *Selection]

// SelectionResponse is the outward-facing representation of a selection.
type SelectionResponse struct {
	ID         int64  `json:"id"`
	Entity     string `json:"entity"`
	EntityType string `json:"entity_type"`
	Researched bool   `json:"researched"`
}

func toResponse(s Selection) SelectionResponse {
	return SelectionResponse{ID: s.ID, Entity: s.Entity, EntityType: s.EntityType, Researched: s.Researched}
}
