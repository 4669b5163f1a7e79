package store

import (
	"context"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Query is a cached read-only capability, e.g. the distinct project tags.
type Query[T any] struct {
	name  string
	fetch func(ctx context.Context) (T, error)
	cache *Cache
}

func NewQuery[T any](name string, fetch func(ctx context.Context) (T, error), cache *Cache) *Query[T] {
	return &Query[T]{name: name, fetch: fetch, cache: cache}
}

func (q *Query[T]) Get(ctx context.Context) (T, error) {
	role, err := waitGate(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := load(ctx, q.cache, q.name, role, q.fetch)
	if err != nil {
		var zero T
		return zero, errs.NewFetchError(q.name, err)
	}
	return v, nil
}
