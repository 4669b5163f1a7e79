package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Summary is one dashboard tile.
type Summary struct {
	Count       int64      `json:"count"`
	LastUpdated *time.Time `json:"lastUpdated"`
	MostRecent  *string    `json:"mostRecent"`
}

type Summarizer interface {
	Name() string
	Summary(ctx context.Context) (Summary, error)
}

// Dashboard collects every summary concurrently. Any failure fails the whole read.
func Dashboard(ctx context.Context, sources ...Summarizer) (map[string]Summary, error) {
	if _, err := waitGate(ctx); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[string]Summary, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			s, err := src.Summary(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			out[src.Name()] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
