package store

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleAfter is how long a cached read is served without revalidation.
const DefaultStaleAfter = 5 * time.Minute

type cacheEntry struct {
	value      any
	fetchedAt  time.Time
	generation uint64
}

// Cache is a stale-while-revalidate read cache keyed by (resource, role).
//
// Invalidating a resource bumps its generation. Fetches that started under an
// older generation neither populate the cache nor get joined by newer reads,
// so the first read after an invalidation always sees the write.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]cacheEntry
	generations map[string]uint64
	staleAfter  time.Duration
	group       singleflight.Group
	now         func() time.Time
}

func NewCache(staleAfter time.Duration) *Cache {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Cache{
		entries:     make(map[string]cacheEntry),
		generations: make(map[string]uint64),
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

func cacheKey(name, role string) string {
	return name + "|" + role
}

// Invalidate drops every cached role variant of the named resources.
func (c *Cache) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		c.generations[name]++
		prefix := name + "|"
		for key := range c.entries {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
			}
		}
	}
}

func (c *Cache) lookup(name, role string) (cacheEntry, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.generations[name]
	e, ok := c.entries[cacheKey(name, role)]
	return e, gen, ok && e.generation == gen
}

func (c *Cache) store(name, role string, gen uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[name] != gen {
		return
	}
	c.entries[cacheKey(name, role)] = cacheEntry{value: value, fetchedAt: c.now(), generation: gen}
}

func (c *Cache) fetch(ctx context.Context, name, role string, gen uint64, fn func(context.Context) (any, error)) <-chan singleflight.Result {
	flight := cacheKey(name, role) + "#" + strconv.FormatUint(gen, 10)
	return c.group.DoChan(flight, func() (any, error) {
		v, err := fn(ctx)
		if err == nil {
			c.store(name, role, gen, v)
		}
		return v, err
	})
}

// load returns the cached value for (name, role) or fetches it. A stale value
// is returned immediately while one background fetch refreshes it.
func load[T any](ctx context.Context, c *Cache, name, role string, fn func(context.Context) (T, error)) (T, error) {
	erased := func(ctx context.Context) (any, error) { return fn(ctx) }

	entry, gen, ok := c.lookup(name, role)
	if ok {
		if c.now().Sub(entry.fetchedAt) >= c.staleAfter {
			ch := c.fetch(context.WithoutCancel(ctx), name, role, gen, erased)
			go func() {
				if res := <-ch; res.Err != nil {
					log.Warn().Err(res.Err).Str("resource", name).Msg("Background revalidation failed, serving stale data")
				}
			}()
		}
		return entry.value.(T), nil
	}

	var zero T
	select {
	case res := <-c.fetch(context.WithoutCancel(ctx), name, role, gen, erased):
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
