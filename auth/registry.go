package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry bundles the per-session auth objects.
type Entry struct {
	Bootstrap *Bootstrap
	Client    *Client
	Storage   *Storage
}

// Factory builds the auth objects for a session whose storage is seeded from its cookie.
type Factory func(storage *Storage) *Entry

type registryEntry struct {
	*Entry
	lastSeen time.Time
}

// Registry owns one started Bootstrap per browser session and closes idle ones.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	factory Factory
	idle    time.Duration
	now     func() time.Time
}

func NewRegistry(factory Factory, idle time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		idle:    idle,
		now:     time.Now,
	}
}

// NewFactory wires a Client and Bootstrap against one GoTrue service.
func NewFactory(gotrue *GoTrue, storageKey string, jwtSecret []byte, profiles ProfileFetcher, timeouts Timeouts) Factory {
	return func(storage *Storage) *Entry {
		client := NewClient(gotrue, storage, storageKey, jwtSecret)
		return &Entry{
			Bootstrap: NewBootstrap(client, profiles, storage, timeouts),
			Client:    client,
			Storage:   storage,
		}
	}
}

// Acquire returns the entry for sessionID, creating and starting it on first use.
func (r *Registry) Acquire(ctx context.Context, sessionID string, seed map[string]string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		return e.Entry
	}

	e := &registryEntry{Entry: r.factory(NewStorage(seed)), lastSeen: r.now()}
	r.entries[sessionID] = e
	e.Bootstrap.Start(ctx)
	log.Debug().Str("sessionID", sessionID).Int("sessions", len(r.entries)).Msg("Auth session started")
	return e.Entry
}

// Release closes and forgets the entry for sessionID.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	r.mu.Unlock()
	if ok {
		e.Bootstrap.Close()
	}
}

// Sweep closes entries idle for longer than the idle window and returns how many it closed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*registryEntry

	r.mu.Lock()
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.Bootstrap.Close()
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Info().Int("closed", n).Msg("Closed idle auth sessions")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Shutdown closes every entry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.Bootstrap.Close()
	}
}
