package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-backend/errs"
)

// TableStats summarises a table for the admin dashboard.
type TableStats struct {
	Count       int64      `json:"count"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

type preload struct {
	name string
	args []any
}

// Table provides ordered CRUD over one entity type.
type Table[T any] struct {
	exec     executor
	entity   string
	order    []string
	preloads []preload
}

type TableOption func(*tableOptions)

type tableOptions struct {
	order    []string
	preloads []preload
}

// OrderBy sets the list ordering, e.g. "sort_order ASC".
func OrderBy(columns ...string) TableOption {
	return func(o *tableOptions) { o.order = append(o.order, columns...) }
}

// Preload eagerly loads a relation on every read, e.g. "Subcategory.Category".
func Preload(name string, args ...any) TableOption {
	return func(o *tableOptions) { o.preloads = append(o.preloads, preload{name: name, args: args}) }
}

func newTable[T any](exec executor, entity string, opts ...TableOption) *Table[T] {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}
	// ties resolve to insertion order
	o.order = append(o.order, "created_at ASC")
	return &Table[T]{exec: exec, entity: entity, order: o.order, preloads: o.preloads}
}

func (t *Table[T]) query(tx *gorm.DB) *gorm.DB {
	for _, p := range t.preloads {
		tx = tx.Preload(p.name, p.args...)
	}
	return tx
}

func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		q := t.query(tx)
		for _, o := range t.order {
			q = q.Order(o)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("list", t.entity, err)
	}
	return rows, nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		return t.query(tx).First(&row, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound(t.entity)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("get", t.entity, err)
	}
	return &row, nil
}

// Create inserts row; generated columns such as id are written back into it.
func (t *Table[T]) Create(ctx context.Context, row *T) error {
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(row).Error
	})
	if err != nil {
		return errs.NewDatabaseError("create", t.entity, err)
	}
	return nil
}

// Update overwrites every column of the row with the given id, zero values included.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, row *T) error {
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		res := tx.Model(new(T)).
			Where("id = ?", id).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound(t.entity)
	}
	if err != nil {
		return errs.NewDatabaseError("update", t.entity, err)
	}
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(new(T), "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound(t.entity)
	}
	if err != nil {
		return errs.NewDatabaseError("delete", t.entity, err)
	}
	return nil
}

// ExistsBy reports whether any row has column equal to value.
func (t *Table[T]) ExistsBy(ctx context.Context, column string, value any) (bool, error) {
	var count int64
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).Limit(1).Count(&count).Error
	})
	if err != nil {
		return false, errs.NewDatabaseError("check", t.entity, err)
	}
	return count > 0, nil
}

func (t *Table[T]) Stats(ctx context.Context) (TableStats, error) {
	var stats TableStats
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.Model(new(T)).
			Select("count(*) AS count, max(created_at) AS last_updated").
			Scan(&stats).Error
	})
	if err != nil {
		return TableStats{}, errs.NewDatabaseError("count", t.entity, err)
	}
	return stats, nil
}

// MostRecent returns the newest row by creation time, or nil for an empty table.
func (t *Table[T]) MostRecent(ctx context.Context) (*T, error) {
	var rows []T
	err := t.exec.run(ctx, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Limit(1).Find(&rows).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("get", t.entity, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
