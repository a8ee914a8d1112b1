package letters

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"recommendation-backend/internal/shared/storage/gateway"
)

// Letter is the metadata of a generated letter. ResumeID is the grantee's resume.
type Letter struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	LetterID      uuid.UUID `gorm:"column:letter_id"`
	ResumeID      uuid.UUID `gorm:"column:resume_id"`
	Filename      string    `gorm:"column:filename"`
	FileExtension string    `gorm:"column:file_extension"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (Letter) TableName() string { return "file_generated_letter" }

// Key is the object store key of the rendered document.
func (l Letter) Key() string {
	return Key(l.LetterID)
}

// Key builds the object store key for a letter id.
func Key(id uuid.UUID) string {
	return "letters/" + id.String() + ".docx"
}

func (l *Letter) PrimaryKey() int64      { return l.ID }
func (l *Letter) SetPrimaryKey(id int64) { l.ID = id }
func (l *Letter) Columns() []string {
	return []string{"letter_id", "resume_id", "filename", "file_extension"}
}

func (l *Letter) Touch(now time.Time) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

func (l *Letter) Column(name string) (any, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "letter_id":
		return l.LetterID, true
	case "resume_id":
		return l.ResumeID, true
	case "filename":
		return l.Filename, true
	case "file_extension":
		return l.FileExtension, true
	case "created_at":
		return l.CreatedAt, true
	case "updated_at":
		return l.UpdatedAt, true
	}
	return nil, false
}

func (l *Letter) SetColumn(name string, value any) error {
	var ok bool
	switch name {
	case "letter_id":
		l.LetterID, ok = value.(uuid.UUID)
	case "resume_id":
		l.ResumeID, ok = value.(uuid.UUID)
	case "filename":
		l.Filename, ok = value.(string)
	case "file_extension":
		l.FileExtension, ok = value.(string)
	case "updated_at":
		l.UpdatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("file_generated_letter: unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("file_generated_letter: bad value %T for %q", value, name)
	}
	return nil
}

// Repo persists Letters.
type Repo = gateway.Gateway[Letter, *Letter]

// LetterResponse is the listing representation of a letter.
type LetterResponse struct {
	LetterID      string    `json:"letter_id"`
	Filename      string    `json:"filename"`
	FileExtension string    `json:"file_extension"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(l Letter) LetterResponse {
	return LetterResponse{
		LetterID:      l.LetterID.String(),
		Filename:      l.Filename,
		FileExtension: l.FileExtension,
		CreatedAt:     l.CreatedAt,
	}
}
