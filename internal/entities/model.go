package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recommendation-backend/internal/facts"
	"recommendation-backend/internal/shared/storage/gateway"
)

// Labels produced by extraction.
const (
	LabelSkill         = "SKILL"
	LabelProject       = "PROJECT"
	LabelOrg           = "ORG"
	LabelCertification = "CERTIFICATION"
	LabelAchievement   = "ACHIEVEMENT"
	LabelPerson        = "PERSON"
	LabelGPE           = "GPE"
)

// Entity is one labeled span. Text is stored normalized.
type Entity struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Map groups entities by label.
type Map map[string][]Entity

// Count returns the number of entities across all labels.
func (m Map) Count() int {
	n := 0
	for _, list := range m {
		n += len(list)
	}
	return n
}

// Value stores the map as jsonb. A nil map is written as an empty object.
func (m Map) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string][]Entity(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Map) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Map{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("entities: cannot scan %T", src)
	}
	out := Map{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("entities: decode: %w", err)
		}
	}
	*m = out
	return nil
}

// Record is the single NER row of a resume: its facts, when extracted, and its entities.
type Record struct {
	ID        int64        `gorm:"column:id;primaryKey"`
	ResumeID  uuid.UUID    `gorm:"column:resume_id"`
	Facts     *facts.Facts `gorm:"column:facts"`
	Entities  Map          `gorm:"column:entities"`
	CreatedAt time.Time    `gorm:"column:created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at"`
}

func (Record) TableName() string { return "ner_entity" }

func (r *Record) PrimaryKey() int64      { return r.ID }
func (r *Record) SetPrimaryKey(id int64) { r.ID = id }
func (r *Record) Columns() []string      { return []string{"resume_id", "facts", "entities"} }

func (r *Record) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

func (r *Record) Column(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "resume_id":
		return r.ResumeID, true
	case "facts":
		return r.Facts, true
	case "entities":
		return r.Entities, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	}
	return nil, false
}

func (r *Record) SetColumn(name string, value any) error {
	var ok bool
	switch name {
	case "resume_id":
		r.ResumeID, ok = value.(uuid.UUID)
	case "facts":
		r.Facts, ok = value.(*facts.Facts)
	case "entities":
		r.Entities, ok = value.(Map)
	case "updated_at":
		r.UpdatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("ner_entity: unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("ner_entity: bad value %T for %q", value, name)
	}
	return nil
}

// Repo persists Records.
type Repo = gateway.Gateway[Record, *Record]
