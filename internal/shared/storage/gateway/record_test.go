package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type note struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id"`
	Title     string    `gorm:"column:title"`
	Done      bool      `gorm:"column:done"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (note) TableName() string { return "notes" }

func (n *note) PrimaryKey() int64      { return n.ID }
func (n *note) SetPrimaryKey(id int64) { n.ID = id }
func (n *note) Columns() []string      { return []string{"owner_id", "title", "done"} }

func (n *note) Touch(now time.Time) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
}

func (n *note) Column(name string) (any, bool) {
	switch name {
	case "id":
		return n.ID, true
	case "owner_id":
		return n.OwnerID, true
	case "title":
		return n.Title, true
	case "done":
		return n.Done, true
	case "created_at":
		return n.CreatedAt, true
	case "updated_at":
		return n.UpdatedAt, true
	}
	return nil, false
}

func (n *note) SetColumn(name string, value any) error {
	switch name {
	case "owner_id":
		n.OwnerID = value.(uuid.UUID)
	case "title":
		n.Title = value.(string)
	case "done":
		n.Done = value.(bool)
	case "updated_at":
		n.UpdatedAt = value.(time.Time)
	default:
		return fmt.Errorf("unknown column %q", name)
	}
	return nil
}
