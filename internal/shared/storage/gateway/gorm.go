package gateway

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm persists records through gorm. Table names come from each model's TableName.
type Gorm[T any, PT RecordPtr[T]] struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGorm wraps db.
func NewGorm[T any, PT RecordPtr[T]](db *gorm.DB) *Gorm[T, PT] {
	return &Gorm[T, PT]{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (g *Gorm[T, PT]) Find(ctx context.Context, id int64) (*T, error) {
	var rec T
	err := g.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (g *Gorm[T, PT]) FindAllBy(ctx context.Context, q Query) ([]T, error) {
	tx := where(g.db.WithContext(ctx).Model(new(T)), q.Filters).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.orderColumn()}, Desc: q.Desc})
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	out := make([]T, 0)
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gorm[T, PT]) Create(ctx context.Context, rec PT) (int64, error) {
	if rec.PrimaryKey() != 0 {
		return 0, ErrExplicitID
	}
	rec.Touch(g.now())
	if err := g.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, err
	}
	return rec.PrimaryKey(), nil
}

func (g *Gorm[T, PT]) Update(ctx context.Context, id int64, values Values) (int64, error) {
	assign := make(map[string]any, len(values)+1)
	for k, v := range values {
		assign[k] = v
	}
	assign["updated_at"] = g.now()
	res := g.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(assign)
	return res.RowsAffected, res.Error
}

func (g *Gorm[T, PT]) Upsert(ctx context.Context, rec PT, conflict ...string) (int64, error) {
	if len(conflict) == 0 {
		return 0, errors.New("upsert requires conflict columns")
	}
	cols := make([]clause.Column, 0, len(conflict))
	for _, c := range conflict {
		cols = append(cols, clause.Column{Name: c})
	}
	updates := append(withoutColumns(rec.Columns(), conflict), "updated_at")

	rec.Touch(g.now())
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(rec).Error
	if err != nil {
		return 0, err
	}
	return rec.PrimaryKey(), nil
}

func (g *Gorm[T, PT]) DeleteBy(ctx context.Context, filters ...Filter) (int64, bool, error) {
	if len(filters) == 0 {
		return 0, false, nil
	}
	var (
		id    int64
		found bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec T
		err := where(tx, filters).Order("id").First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id = PT(&rec).PrimaryKey()
		res := tx.Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil || !found {
		return 0, false, err
	}
	return id, true, nil
}

func (g *Gorm[T, PT]) DeleteAllBy(ctx context.Context, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, nil
	}
	res := where(g.db.WithContext(ctx), filters).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (g *Gorm[T, PT]) Replace(ctx context.Context, filters []Filter, recs []PT) ([]int64, error) {
	if len(filters) == 0 {
		return nil, errors.New("replace requires filters")
	}
	ids := make([]int64, 0, len(recs))
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := where(tx, filters).Delete(new(T)).Error; err != nil {
			return err
		}
		now := g.now()
		for _, rec := range recs {
			if rec.PrimaryKey() != 0 {
				return ErrExplicitID
			}
			rec.Touch(now)
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			ids = append(ids, rec.PrimaryKey())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func where(tx *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Field}, Value: f.Value})
	}
	return tx
}
