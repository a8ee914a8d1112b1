package research

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"recommendation-backend/internal/shared/storage/gateway"
)

// Research is the researched text of one selection. (resume_id, entity_id) is unique.
type Research struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	ResumeID  uuid.UUID `gorm:"column:resume_id"`
	EntityID  int64     `gorm:"column:entity_id"`
	Research  string    `gorm:"column:research"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Research) TableName() string { return "ner_entity_research" }

func (r *Research) PrimaryKey() int64      { return r.ID }
func (r *Research) SetPrimaryKey(id int64) { r.ID = id }
func (r *Research) Columns() []string      { return []string{"resume_id", "entity_id", "research"} }

func (r *Research) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

func (r *Research) Column(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "resume_id":
		return r.ResumeID, true
	case "entity_id":
		return r.EntityID, true
	case "research":
		return r.Research, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	}
	return nil, false
}

func (r *Research) SetColumn(name string, value any) error {
	var ok bool
	switch name {
	case "resume_id":
		r.ResumeID, ok = value.(uuid.UUID)
	case "entity_id":
		r.EntityID, ok = value.(int64)
	case "research":
		r.Research, ok = value.(string)
	case "updated_at":
		r.UpdatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("ner_entity_research: unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("ner_entity_research: bad value %T for %q", value, name)
	}
	return nil
}

// Repo persists Research rows.
type Repo = gateway.Gateway[Research, *Research]
