package api

import (
	"context"
	"crypto/sha256"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/store"
)

// SessionName is the name of the cookie holding the session id and the
// auth client's token storage.
const SessionName = "portfolio-session"

const sessionKeyID = "sid"

// NewCookieStore builds the signed and encrypted cookie store. Both keys are
// derived from secret, which must stay stable across restarts and replicas.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	hashKey := sha256.Sum256([]byte(secret))
	blockKey := sha256.Sum256([]byte("encryption:" + secret))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(30 * 24 * 60 * 60)
	return store
}

type sessionMiddleware struct {
	cookies  sessions.Store
	registry *auth.Registry
	logger   zerolog.Logger
}

func newSessionMiddleware(cookies sessions.Store, registry *auth.Registry) sessionMiddleware {
	return sessionMiddleware{
		cookies:  cookies,
		registry: registry,
		logger:   log.With().Str("handlerName", "sessionMiddleware").Logger(),
	}
}

// authSession is the caller's handle on the registry. A caller without a
// session cookie gets a registry entry only once a handler asks for one, so
// anonymous page views never start an auth session.
type authSession struct {
	ctx      context.Context
	registry *auth.Registry
	cookie   *sessions.Session
	id       string
	entry    *auth.Entry
	started  bool
}

func (s *authSession) ID() string {
	return s.id
}

// Entry returns the caller's auth objects, starting them on first use.
func (s *authSession) Entry() *auth.Entry {
	if s.entry != nil {
		return s.entry
	}
	if s.id == "" {
		s.id = uuid.NewString()
		s.cookie.Values[sessionKeyID] = s.id
		s.started = true
	}
	s.entry = s.registry.Acquire(s.ctx, s.id, storedTokens(s.cookie))
	return s.entry
}

// Existing returns the caller's auth objects, nil when none were started.
func (s *authSession) Existing() *auth.Entry {
	return s.entry
}

// attach resolves the caller's auth session from the cookie and exposes it to
// handlers as the read gate. Requests without a session cookie read as anon.
func (m sessionMiddleware) attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// an unreadable cookie still yields a usable empty session
		cookie, err := m.cookies.Get(r, SessionName)
		if err != nil {
			m.logger.Debug().Err(err).Msg("Discarding unreadable session cookie")
		}

		s := &authSession{ctx: r.Context(), registry: m.registry, cookie: cookie}
		s.id, _ = cookie.Values[sessionKeyID].(string)

		ctx := ctxWithAuth(r.Context(), s)
		if s.id != "" {
			entry := s.Entry()
			if err := entry.Bootstrap.Revalidate(r.Context()); err != nil {
				m.logger.Warn().Err(err).Msg("Could not refresh expired session")
			}
			ctx = store.WithGate(ctx, entry.Bootstrap)
			ctx = database.WithClaims(ctx, claimsOf(entry.Bootstrap.CurrentIdentity()))
		} else {
			ctx = database.WithClaims(ctx, claimsOf(nil))
		}

		sw := &sessionWriter{
			ResponseWriter: w,
			request:        r,
			auth:           s,
			logger:         m.logger,
		}
		next.ServeHTTP(sw, r.WithContext(ctx))
		sw.persist()
	})
}

func storedTokens(session *sessions.Session) map[string]string {
	seed := make(map[string]string)
	for k, v := range session.Values {
		key, ok := k.(string)
		if !ok || !strings.HasPrefix(key, auth.VendorPrefix) {
			continue
		}
		if value, ok := v.(string); ok {
			seed[key] = value
		}
	}
	return seed
}

// sessionWriter rewrites the cookie before the first byte of the response
// whenever the auth client touched its storage.
type sessionWriter struct {
	http.ResponseWriter
	request *http.Request
	auth    *authSession
	saved   bool
	logger  zerolog.Logger
}

func (w *sessionWriter) persist() {
	if w.saved {
		return
	}
	w.saved = true
	entry := w.auth.Existing()
	if entry == nil {
		return
	}
	if !entry.Storage.TakeDirty() && !w.auth.started {
		return
	}

	cookie := w.auth.cookie
	for k := range cookie.Values {
		if key, ok := k.(string); ok && strings.HasPrefix(key, auth.VendorPrefix) {
			delete(cookie.Values, k)
		}
	}
	for k, v := range entry.Storage.Snapshot() {
		if strings.HasPrefix(k, auth.VendorPrefix) {
			cookie.Values[k] = v
		}
	}
	if err := cookie.Save(w.request, w.ResponseWriter); err != nil {
		w.logger.Error().Err(err).Msg("Failed to save session cookie")
	}
}

func (w *sessionWriter) WriteHeader(statusCode int) {
	w.persist()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.persist()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
