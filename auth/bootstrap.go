package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseRestoring
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseRestoring:
		return "restoring"
	case PhaseReady:
		return "ready"
	}
	return "unknown"
}

// SessionSource is the part of the auth service the bootstrap depends on.
type SessionSource interface {
	GetSession(ctx context.Context) (*Session, *Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, *Identity, error)
	Subscribe() (<-chan Event, func())
	SignOut(ctx context.Context) error
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, identity *Identity) (*models.Profile, error)
}

// State is the read side of a Bootstrap consumed by the route guard.
type State interface {
	IsInitializationComplete() bool
	CurrentIdentity() *Identity
	IsAdmin() bool
}

// refreshMargin is how close to expiry oauth2 already treats an access token as expired.
const refreshMargin = 10 * time.Second

type Timeouts struct {
	Profile time.Duration
	Init    time.Duration
	SignOut time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Profile: 3 * time.Second,
		Init:    5 * time.Second,
		SignOut: 3 * time.Second,
	}
}

func TimeoutsFromMap(cfg map[string]string) Timeouts {
	d := DefaultTimeouts()
	return Timeouts{
		Profile: config.GetMillis(cfg, "AUTH_PROFILE_TIMEOUT_MS", d.Profile),
		Init:    config.GetMillis(cfg, "AUTH_INIT_TIMEOUT_MS", d.Init),
		SignOut: config.GetMillis(cfg, "AUTH_SIGNOUT_TIMEOUT_MS", d.SignOut),
	}
}

type SignOutResult struct {
	// Fallback is set when the remote sign-out failed or timed out and local
	// state was wiped instead. The caller should force a full reload.
	Fallback    bool
	ClearedKeys int
}

// Bootstrap restores and tracks the authentication state of one browser session.
//
// It becomes ready exactly once: when the restore attempt finishes, when the
// first session event arrives, or when the initialization timeout fires,
// whichever happens first. Work that completes after Close is discarded.
type Bootstrap struct {
	source   SessionSource
	profiles ProfileFetcher
	storage  *Storage
	timeouts Timeouts
	logger   zerolog.Logger

	mu       sync.RWMutex
	phase    Phase
	session  *Session
	identity *Identity
	profile  *models.Profile
	epoch    uint64

	ready     chan struct{}
	readyOnce sync.Once
	closed    atomic.Bool
	started   atomic.Bool

	cancel      context.CancelFunc
	safety      *time.Timer
	unsubscribe func()
}

func NewBootstrap(source SessionSource, profiles ProfileFetcher, storage *Storage, timeouts Timeouts) *Bootstrap {
	return &Bootstrap{
		source:   source,
		profiles: profiles,
		storage:  storage,
		timeouts: timeouts,
		logger:   log.With().Str("component", "auth-bootstrap").Logger(),
		phase:    PhaseInitializing,
		ready:    make(chan struct{}),
		cancel:   func() {},
	}
}

// Start begins restoring the session. The background work outlives ctx's
// cancellation and only stops on Close.
func (b *Bootstrap) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) || b.closed.Load() {
		return
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, unsubscribe := b.source.Subscribe()

	b.mu.Lock()
	b.phase = PhaseRestoring
	b.cancel = cancel
	b.unsubscribe = unsubscribe
	b.safety = time.AfterFunc(b.timeouts.Init, func() {
		if b.closed.Load() {
			return
		}
		if !b.IsInitializationComplete() {
			b.logger.Warn().Dur("timeout", b.timeouts.Init).Msg("Auth initialization timed out, continuing without a restored session")
		}
		b.markReady()
	})
	b.mu.Unlock()

	go b.watch(ctx, events)
	go b.restore(ctx)
}

func (b *Bootstrap) restore(ctx context.Context) {
	b.mu.RLock()
	epoch := b.epoch
	b.mu.RUnlock()

	session, identity, err := b.source.GetSession(ctx)
	if b.closed.Load() {
		return
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to restore session")
		session, identity = nil, nil
	}

	var profile *models.Profile
	if identity != nil {
		profile, err = b.fetchProfile(ctx, identity)
		if b.closed.Load() {
			return
		}
		if err != nil {
			b.logger.Warn().Err(err).Str("userID", identity.ID.String()).Msg("Continuing without profile")
		}
	}

	b.mu.Lock()
	// a session event already replaced whatever this restore read
	if b.epoch == epoch {
		b.session, b.identity, b.profile = session, identity, profile
	}
	b.mu.Unlock()
	b.markReady()
}

func (b *Bootstrap) watch(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.handle(ctx, ev)
		}
	}
}

func (b *Bootstrap) handle(ctx context.Context, ev Event) {
	if b.closed.Load() {
		return
	}
	b.logger.Debug().Str("event", string(ev.Type)).Msg("Session changed")
	b.apply(ctx, ev, true)
}

// apply moves the bootstrap to the session carried by ev and loads its
// profile. With skipSeen set, an event whose access token is already current
// is ignored: a request applied it synchronously.
func (b *Bootstrap) apply(ctx context.Context, ev Event, skipSeen bool) {
	signedOut := ev.Type == EventSignedOut || ev.Identity == nil

	b.mu.Lock()
	if skipSeen && !signedOut && b.holds(ev.Session) {
		b.mu.Unlock()
		b.markReady()
		return
	}
	b.epoch++
	epoch := b.epoch
	if signedOut {
		b.session, b.identity, b.profile = nil, nil, nil
	} else {
		if b.identity == nil || b.identity.ID != ev.Identity.ID {
			b.profile = nil
		}
		b.session, b.identity = ev.Session, ev.Identity
	}
	b.mu.Unlock()

	if !signedOut {
		profile, err := b.fetchProfile(ctx, ev.Identity)
		if b.closed.Load() {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn().Err(err).Str("userID", ev.Identity.ID.String()).Msg("Continuing without profile")
		}
		b.mu.Lock()
		if b.epoch == epoch && profile != nil {
			b.profile = profile
		}
		b.mu.Unlock()
	}
	b.markReady()
}

// holds reports whether session is the one already in place. Callers hold b.mu.
func (b *Bootstrap) holds(session *Session) bool {
	return session != nil && session.AccessToken != "" &&
		b.session != nil && b.session.AccessToken == session.AccessToken
}

// SignIn authenticates with a password and applies the new session before
// returning, so the caller's next request already sees the identity and profile.
func (b *Bootstrap) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	session, identity, err := b.source.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	b.apply(ctx, Event{Type: EventSignedIn, Session: session, Identity: identity}, false)
	return identity, nil
}

// Revalidate re-reads the session once its access token is about to expire,
// which refreshes the token or signs the caller out when the refresh is
// rejected. An error is only returned when the current token has already
// expired and could not be refreshed.
func (b *Bootstrap) Revalidate(ctx context.Context) error {
	b.mu.RLock()
	identity, epoch := b.identity, b.epoch
	b.mu.RUnlock()
	if identity == nil || identity.ExpiresAt.IsZero() || time.Until(identity.ExpiresAt) > refreshMargin {
		return nil
	}

	session, refreshed, err := b.source.GetSession(ctx)
	if b.closed.Load() {
		return nil
	}
	if err != nil {
		if !identity.Expired(time.Now()) {
			b.logger.Warn().Err(err).Msg("Token refresh failed, keeping the current token until it expires")
			return nil
		}
		return err
	}
	if refreshed == nil {
		b.mu.Lock()
		if b.epoch == epoch {
			b.epoch++
			b.session, b.identity, b.profile = nil, nil, nil
		}
		b.mu.Unlock()
		b.logger.Info().Str("userID", identity.ID.String()).Msg("Session expired")
		return nil
	}
	b.apply(ctx, Event{Type: EventTokenRefreshed, Session: session, Identity: refreshed}, true)
	return nil
}

// fetchProfile races the profile lookup against the profile timeout.
func (b *Bootstrap) fetchProfile(ctx context.Context, identity *Identity) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeouts.Profile)
	defer cancel()

	type result struct {
		profile *models.Profile
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := b.profiles.FetchProfile(ctx, identity)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		return r.profile, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, errs.NewTimeoutError("profile fetch", b.timeouts.Profile)
	}
}

func (b *Bootstrap) markReady() {
	b.readyOnce.Do(func() {
		b.mu.Lock()
		b.phase = PhaseReady
		if b.safety != nil {
			b.safety.Stop()
		}
		b.mu.Unlock()
		close(b.ready)
	})
}

// RefreshProfile re-reads the profile of the current identity. When the read
// fails or finds no profile the previous one is kept.
func (b *Bootstrap) RefreshProfile(ctx context.Context) error {
	b.mu.RLock()
	identity, epoch := b.identity, b.epoch
	b.mu.RUnlock()
	if identity == nil {
		return nil
	}

	profile, err := b.fetchProfile(ctx, identity)
	if b.closed.Load() {
		return nil
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			b.logger.Warn().Err(err).Msg("Profile refresh failed, keeping previous profile")
		}
		return err
	}
	if profile == nil {
		return nil
	}
	b.mu.Lock()
	if b.epoch == epoch {
		b.profile = profile
	}
	b.mu.Unlock()
	return nil
}

// SignOut ends the session. A remote failure or timeout falls back to wiping
// every vendor-prefixed key from storage.
func (b *Bootstrap) SignOut(ctx context.Context) SignOutResult {
	ctx, cancel := context.WithTimeout(ctx, b.timeouts.SignOut)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.source.SignOut(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = errs.NewTimeoutError("sign out", b.timeouts.SignOut)
	}

	b.clear()
	if err == nil {
		return SignOutResult{}
	}

	b.logger.Warn().Err(err).Msg("Sign out failed, clearing local session")
	removed := 0
	if b.storage != nil {
		removed = b.storage.RemovePrefix(VendorPrefix)
	}
	return SignOutResult{Fallback: true, ClearedKeys: removed}
}

func (b *Bootstrap) clear() {
	b.mu.Lock()
	b.epoch++
	b.session, b.identity, b.profile = nil, nil, nil
	b.mu.Unlock()
}

// Close stops background work. Results that arrive afterwards are dropped.
func (b *Bootstrap) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	cancel, unsubscribe, safety := b.cancel, b.unsubscribe, b.safety
	b.mu.Unlock()

	cancel()
	if safety != nil {
		safety.Stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (b *Bootstrap) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bootstrap) Phase() Phase {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.phase
}

func (b *Bootstrap) IsInitializationComplete() bool {
	return b.Phase() == PhaseReady
}

func (b *Bootstrap) CurrentIdentity() *Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.identity == nil {
		return nil
	}
	identity := *b.identity
	return &identity
}

func (b *Bootstrap) CurrentProfile() *models.Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.profile == nil {
		return nil
	}
	profile := *b.profile
	return &profile
}

func (b *Bootstrap) IsAdmin() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profile != nil && b.profile.IsAdmin
}

func (b *Bootstrap) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return ""
	}
	return b.session.AccessToken
}

// Role names the caller's privilege level: "admin", "authenticated" or "anon".
func (b *Bootstrap) Role() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	switch {
	case b.identity == nil:
		return "anon"
	case b.profile != nil && b.profile.IsAdmin:
		return "admin"
	default:
		return "authenticated"
	}
}
