package gateway

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps records in process. Used in dev mode and tests.
type Memory[T any, PT RecordPtr[T]] struct {
	mu     sync.RWMutex
	rows   map[int64]T
	nextID int64
	now    func() time.Time
}

// NewMemory returns an empty in-memory gateway.
func NewMemory[T any, PT RecordPtr[T]]() *Memory[T, PT] {
	return &Memory[T, PT]{
		rows: make(map[int64]T),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory[T, PT]) Find(ctx context.Context, id int64) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := row
	return &out, nil
}

func (m *Memory[T, PT]) FindAllBy(ctx context.Context, q Query) ([]T, error) {
	m.mu.RLock()
	out := m.matchLocked(q.Filters)
	m.mu.RUnlock()

	col := q.orderColumn()
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := PT(&out[i]).Column(col)
		b, _ := PT(&out[j]).Column(col)
		if q.Desc {
			return less(b, a)
		}
		return less(a, b)
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []T{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory[T, PT]) Create(ctx context.Context, rec PT) (int64, error) {
	if rec.PrimaryKey() != 0 {
		return 0, ErrExplicitID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(rec), nil
}

func (m *Memory[T, PT]) Update(ctx context.Context, id int64, values Values) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return 0, nil
	}
	for k, v := range values {
		if err := PT(&row).SetColumn(k, v); err != nil {
			return 0, err
		}
	}
	PT(&row).Touch(m.now())
	m.rows[id] = row
	return 1, nil
}

func (m *Memory[T, PT]) Upsert(ctx context.Context, rec PT, conflict ...string) (int64, error) {
	if len(conflict) == 0 {
		return 0, errors.New("upsert requires conflict columns")
	}
	filters := make([]Filter, 0, len(conflict))
	for _, c := range conflict {
		v, ok := rec.Column(c)
		if !ok {
			return 0, errors.New("unknown conflict column " + c)
		}
		filters = append(filters, Eq(c, v))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if !matches(PT(&row), filters) {
			continue
		}
		for _, c := range withoutColumns(rec.Columns(), conflict) {
			v, _ := rec.Column(c)
			if err := PT(&row).SetColumn(c, v); err != nil {
				return 0, err
			}
		}
		PT(&row).Touch(m.now())
		m.rows[id] = row
		rec.SetPrimaryKey(id)
		return id, nil
	}
	rec.SetPrimaryKey(0)
	return m.insertLocked(rec), nil
}

func (m *Memory[T, PT]) DeleteBy(ctx context.Context, filters ...Filter) (int64, bool, error) {
	if len(filters) == 0 {
		return 0, false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		victim int64
		found  bool
	)
	for id, row := range m.rows {
		if matches(PT(&row), filters) && (!found || id < victim) {
			victim, found = id, true
		}
	}
	if !found {
		return 0, false, nil
	}
	delete(m.rows, victim)
	return victim, true, nil
}

func (m *Memory[T, PT]) DeleteAllBy(ctx context.Context, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(filters), nil
}

func (m *Memory[T, PT]) Replace(ctx context.Context, filters []Filter, recs []PT) ([]int64, error) {
	if len(filters) == 0 {
		return nil, errors.New("replace requires filters")
	}
	for _, rec := range recs {
		if rec.PrimaryKey() != 0 {
			return nil, ErrExplicitID
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(filters)
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, m.insertLocked(rec))
	}
	return ids, nil
}

func (m *Memory[T, PT]) insertLocked(rec PT) int64 {
	m.nextID++
	rec.SetPrimaryKey(m.nextID)
	rec.Touch(m.now())
	m.rows[m.nextID] = *rec
	return m.nextID
}

func (m *Memory[T, PT]) deleteLocked(filters []Filter) int64 {
	var n int64
	for id, row := range m.rows {
		if matches(PT(&row), filters) {
			delete(m.rows, id)
			n++
		}
	}
	return n
}

func (m *Memory[T, PT]) matchLocked(filters []Filter) []T {
	out := make([]T, 0)
	for _, row := range m.rows {
		if matches(PT(&row), filters) {
			out = append(out, row)
		}
	}
	return out
}

func matches(rec Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := rec.Column(f.Field)
		if !ok || !equal(v, f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case int:
			return av == int64(bv)
		}
		return false
	case uuid.UUID:
		switch bv := b.(type) {
		case uuid.UUID:
			return av == bv
		case string:
			return av.String() == strings.ToLower(bv)
		}
		return false
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return false
}

func less(a, b any) bool {
	switch av := a.(type) {
	case int64:
		bv, _ := b.(int64)
		return av < bv
	case string:
		bv, _ := b.(string)
		return av < bv
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Before(bv)
	case uuid.UUID:
		bv, _ := b.(uuid.UUID)
		return av.String() < bv.String()
	case bool:
		bv, _ := b.(bool)
		return !av && bv
	}
	return false
}
