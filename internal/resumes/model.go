package resumes

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"recommendation-backend/internal/shared/storage/gateway"
)

// Resume is the metadata row of an uploaded resume. FileID is derived from the file bytes.
type Resume struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	FileID        uuid.UUID `gorm:"column:file_id"`
	Filename      string    `gorm:"column:filename"`
	FileExtension string    `gorm:"column:file_extension"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (Resume) TableName() string { return "file_resume" }

// Key is the object store key holding the resume bytes.
func (r Resume) Key() string {
	return Key(r.FileID, r.FileExtension)
}

// Key builds the object store key for a resume id and extension.
func Key(id uuid.UUID, ext string) string {
	return "resumes/" + id.String() + "." + ext
}

func (r *Resume) PrimaryKey() int64      { return r.ID }
func (r *Resume) SetPrimaryKey(id int64) { r.ID = id }
func (r *Resume) Columns() []string      { return []string{"file_id", "filename", "file_extension"} }

func (r *Resume) Touch(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

func (r *Resume) Column(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "file_id":
		return r.FileID, true
	case "filename":
		return r.Filename, true
	case "file_extension":
		return r.FileExtension, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	}
	return nil, false
}

func (r *Resume) SetColumn(name string, value any) error {
	var ok bool
	switch name {
	case "file_id":
		r.FileID, ok = value.(uuid.UUID)
	case "filename":
		r.Filename, ok = value.(string)
	case "file_extension":
		r.FileExtension, ok = value.(string)
	case "updated_at":
		r.UpdatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("file_resume: unknown column %q", name)
	}
	if !ok {
		return fmt.Errorf("file_resume: bad value %T for %q", value, name)
	}
	return nil
}

// Repo persists Resume rows.
type Repo = gateway.Gateway[Resume, *Resume]
