package auth

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// VendorPrefix marks every key the auth client writes into Storage.
const VendorPrefix = "sb-"

// StorageKey is the key the session JSON lives under, e.g. "sb-abcd-auth-token".
func StorageKey(projectRef string) string {
	return VendorPrefix + projectRef + "-auth-token"
}

// ProjectRef extracts the project reference from a Supabase URL
// ("https://abcd.supabase.co" -> "abcd"). Unknown hosts fall back to the full hostname.
func ProjectRef(supabaseURL string) string {
	u, err := url.Parse(supabaseURL)
	if err != nil || u.Hostname() == "" {
		return "local"
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// Storage is a per-session key/value store for persisted client state.
// Writes mark it dirty so the HTTP layer knows to re-issue the cookie.
type Storage struct {
	mu    sync.RWMutex
	items map[string]string
	dirty bool
}

func NewStorage(seed map[string]string) *Storage {
	items := make(map[string]string, len(seed))
	for k, v := range seed {
		items[k] = v
	}
	return &Storage{items: items}
}

func (s *Storage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Storage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	s.dirty = true
}

func (s *Storage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		delete(s.items, key)
		s.dirty = true
	}
}

// RemovePrefix deletes every key starting with prefix and returns how many were removed.
func (s *Storage) RemovePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	return removed
}

func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Storage) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// TakeDirty reports whether Storage changed since the last call and resets the flag.
func (s *Storage) TakeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}
