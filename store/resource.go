package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
)

// Input is a client payload that validates itself and builds the row to write.
type Input[T any] interface {
	Validate() error
	ToModel() T
}

// Table is the persistence a Resource needs; *database.Table and
// *database.ProjectRepo satisfy it.
type Table[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id uuid.UUID, row *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (database.TableStats, error)
	MostRecent(ctx context.Context) (*T, error)
}

// Dependent describes child rows that block deleting a parent.
type Dependent struct {
	// Name is the plural used in the rejection message, e.g. "subcategories".
	Name   string
	Exists func(ctx context.Context, parentID uuid.UUID) (bool, error)
}

// ChildrenOf builds a Dependent from a child table's foreign key column.
func ChildrenOf(name, column string, children interface {
	ExistsBy(ctx context.Context, column string, value any) (bool, error)
}) Dependent {
	return Dependent{
		Name: name,
		Exists: func(ctx context.Context, parentID uuid.UUID) (bool, error) {
			return children.ExistsBy(ctx, column, parentID)
		},
	}
}

type Option func(*options)

type options struct {
	dependents  []Dependent
	invalidates []string
}

// WithDependents rejects deletes while any of deps still has rows for the parent.
func WithDependents(deps ...Dependent) Option {
	return func(o *options) { o.dependents = append(o.dependents, deps...) }
}

// AlsoInvalidates names further cached resources that a write to this one makes stale.
func AlsoInvalidates(names ...string) Option {
	return func(o *options) { o.invalidates = append(o.invalidates, names...) }
}

// Resource is the read and write capability for one entity collection.
// Reads wait on the caller's Gate and are cached; writes validate, persist,
// invalidate and notify.
type Resource[T any, In Input[T]] struct {
	name     string
	singular string
	table    Table[T]
	cache    *Cache
	opts     options
}

func NewResource[T any, In Input[T]](name, singular string, table Table[T], cache *Cache, opts ...Option) *Resource[T, In] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Resource[T, In]{name: name, singular: singular, table: table, cache: cache, opts: o}
}

func (r *Resource[T, In]) Name() string {
	return r.name
}

// List returns the whole collection in its display order. The slice may be
// shared with other callers and must not be modified.
func (r *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	role, err := waitGate(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := load(ctx, r.cache, r.name, role, r.table.List)
	if err != nil {
		return nil, errs.NewFetchError(r.name, err)
	}
	return rows, nil
}

func (r *Resource[T, In]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	if _, err := waitGate(ctx); err != nil {
		return nil, err
	}
	return r.table.Get(ctx, id)
}

func (r *Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	if err := in.Validate(); err != nil {
		notifyFailure(ctx, "create", r.singular, err)
		return nil, err
	}
	row := in.ToModel()
	if err := r.table.Create(ctx, &row); err != nil {
		notifyFailure(ctx, "create", r.singular, err)
		return nil, err
	}
	r.invalidate()
	notifySuccess(ctx, r.singular, "created")
	return &row, nil
}

func (r *Resource[T, In]) Update(ctx context.Context, id uuid.UUID, in In) (*T, error) {
	if err := in.Validate(); err != nil {
		notifyFailure(ctx, "update", r.singular, err)
		return nil, err
	}
	row := in.ToModel()
	if err := r.table.Update(ctx, id, &row); err != nil {
		notifyFailure(ctx, "update", r.singular, err)
		return nil, err
	}
	r.invalidate()
	notifySuccess(ctx, r.singular, "updated")

	updated, err := r.table.Get(ctx, id)
	if err != nil {
		return &row, nil
	}
	return updated, nil
}

// Delete removes the row unless a registered dependent still references it.
func (r *Resource[T, In]) Delete(ctx context.Context, id uuid.UUID) error {
	for _, dep := range r.opts.dependents {
		linked, err := dep.Exists(ctx, id)
		if err != nil {
			notifyFailure(ctx, "delete", r.singular, err)
			return err
		}
		if linked {
			err := errs.NewReferentialIntegrityError(r.singular, dep.Name)
			notifyFailure(ctx, "delete", r.singular, err)
			return err
		}
	}
	if err := r.table.Delete(ctx, id); err != nil {
		notifyFailure(ctx, "delete", r.singular, err)
		return err
	}
	r.invalidate()
	notifySuccess(ctx, r.singular, "deleted")
	return nil
}

func (r *Resource[T, In]) invalidate() {
	r.cache.Invalidate(append([]string{r.name}, r.opts.invalidates...)...)
}

// Summary reports the dashboard figures for the collection.
func (r *Resource[T, In]) Summary(ctx context.Context) (Summary, error) {
	stats, err := r.table.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Count: stats.Count, LastUpdated: stats.LastUpdated}
	recent, err := r.table.MostRecent(ctx)
	if err != nil {
		return Summary{}, err
	}
	if named, ok := any(recent).(interface{ DisplayName() string }); ok && recent != nil {
		name := named.DisplayName()
		s.MostRecent = &name
	}
	return s, nil
}
