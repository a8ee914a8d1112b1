// Package gateway provides generic persistence over record types keyed by a
// generated int64 id. Filters are typed equality conjunctions.
package gateway

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Find when no record has the id.
	ErrNotFound = errors.New("record not found")
	// ErrExplicitID is returned by Create when the caller preset an id.
	ErrExplicitID = errors.New("id is generated and must not be set")
)

// Record is implemented by the pointer type of every persisted model.
type Record interface {
	PrimaryKey() int64
	SetPrimaryKey(id int64)
	// Column returns the value stored under a column name, including id and timestamps.
	Column(name string) (any, bool)
	SetColumn(name string, value any) error
	// Columns lists data columns, excluding id and timestamps.
	Columns() []string
	// Touch stamps updated_at and, when still zero, created_at.
	Touch(now time.Time)
}

// RecordPtr constrains PT to be *T implementing Record.
type RecordPtr[T any] interface {
	*T
	Record
}

// Filter is one equality predicate.
type Filter struct {
	Field string
	Value any
}

// Eq builds a Filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Query narrows FindAllBy.
type Query struct {
	Filters []Filter
	Limit   int
	Offset  int
	OrderBy string
	Desc    bool
}

func (q Query) orderColumn() string {
	if q.OrderBy == "" {
		return "id"
	}
	return q.OrderBy
}

// Values are column assignments for Update.
type Values map[string]any

// Gateway is the persistence contract shared by the gorm and memory backends.
type Gateway[T any, PT RecordPtr[T]] interface {
	Find(ctx context.Context, id int64) (*T, error)
	FindAllBy(ctx context.Context, q Query) ([]T, error)
	Create(ctx context.Context, rec PT) (int64, error)
	Update(ctx context.Context, id int64, values Values) (int64, error)
	Upsert(ctx context.Context, rec PT, conflict ...string) (int64, error)
	DeleteBy(ctx context.Context, filters ...Filter) (int64, bool, error)
	DeleteAllBy(ctx context.Context, filters ...Filter) (int64, error)
	Replace(ctx context.Context, filters []Filter, recs []PT) ([]int64, error)
}

func withoutColumns(cols []string, drop []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		skip := false
		for _, d := range drop {
			if c == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}
