// Package facts holds the structured resume document produced by fact extraction.
package facts

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Facts is the structured content of one resume.
type Facts struct {
	Name           string        `json:"name,omitempty"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Summary        string        `json:"summary,omitempty"`
	Location       string        `json:"location,omitempty"`
	Languages      []string      `json:"languages,omitempty"`
	Skills         []string      `json:"skills,omitempty"`
	Projects       []Project     `json:"projects,omitempty"`
	Experience     []Experience  `json:"experience,omitempty"`
	Education      []Education   `json:"education,omitempty"`
	Certifications []string      `json:"certifications,omitempty"`
	Achievements   []string      `json:"achievements,omitempty"`
	Publications   []Publication `json:"publications,omitempty"`
	References     []Reference   `json:"references,omitempty"`
}

type Project struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

type Experience struct {
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

type Publication struct {
	Title string `json:"title,omitempty"`
	Venue string `json:"venue,omitempty"`
	Year  string `json:"year,omitempty"`
}

type Reference struct {
	Name     string `json:"name,omitempty"`
	Relation string `json:"relation,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// IsZero reports whether nothing was extracted.
func (f Facts) IsZero() bool {
	return strings.TrimSpace(f.Name) == "" &&
		strings.TrimSpace(f.Summary) == "" &&
		strings.TrimSpace(f.Location) == "" &&
		len(f.Skills) == 0 && len(f.Projects) == 0 && len(f.Experience) == 0 &&
		len(f.Education) == 0 && len(f.Certifications) == 0 && len(f.Achievements) == 0 &&
		len(f.Publications) == 0 && len(f.References) == 0
}

// Value stores Facts as jsonb.
func (f Facts) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads Facts from a jsonb column.
func (f *Facts) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*f = Facts{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("facts: cannot scan %T", src)
	}
	if len(raw) == 0 {
		*f = Facts{}
		return nil
	}
	return json.Unmarshal(raw, f)
}

// Parse decodes a JSON document produced by the reasoning model.
func Parse(raw string) (Facts, error) {
	var f Facts
	if strings.TrimSpace(raw) == "" {
		return f, errors.New("facts: empty document")
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return f, fmt.Errorf("facts: decode: %w", err)
	}
	return f, nil
}
