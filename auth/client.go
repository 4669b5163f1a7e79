package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Client is one browser session's handle on the auth service. It keeps the
// session in Storage, refreshes it when the access token has expired and
// announces every change to subscribers.
type Client struct {
	gotrue     *GoTrue
	storage    *Storage
	storageKey string
	jwtSecret  []byte
	events     broker
	mu         sync.Mutex
}

func NewClient(gotrue *GoTrue, storage *Storage, storageKey string, jwtSecret []byte) *Client {
	return &Client{
		gotrue:     gotrue,
		storage:    storage,
		storageKey: storageKey,
		jwtSecret:  jwtSecret,
	}
}

func (c *Client) Storage() *Storage {
	return c.storage
}

func (c *Client) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// GetSession returns the stored session and its identity, refreshing an expired
// access token first. A session that cannot be refreshed is removed and (nil, nil, nil) returned.
func (c *Client) GetSession(ctx context.Context) (*Session, *Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.storage.Get(c.storageKey)
	if !ok || raw == "" {
		return nil, nil, nil
	}
	session, err := decodeSession(raw)
	if err != nil {
		log.Warn().Err(err).Msg("Discarding unreadable stored session")
		c.storage.Remove(c.storageKey)
		return nil, nil, nil
	}

	current := session.Token()
	ts := oauth2.ReuseTokenSource(current, &refreshSource{ctx: ctx, gotrue: c.gotrue, refreshToken: session.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if errs.IsServiceUnavailable(err) {
			return nil, nil, err
		}
		log.Info().Err(err).Msg("Stored session could not be refreshed, signing out locally")
		c.storage.Remove(c.storageKey)
		c.events.publish(Event{Type: EventSignedOut})
		return nil, nil, nil
	}

	refreshed := tok.AccessToken != current.AccessToken
	if refreshed {
		session = sessionFromToken(tok, session.User)
	}

	identity, err := ParseAccessToken(session.AccessToken, c.jwtSecret)
	if err != nil {
		log.Warn().Err(err).Msg("Stored access token is invalid, signing out locally")
		c.storage.Remove(c.storageKey)
		return nil, nil, nil
	}

	if refreshed {
		if err := c.persist(session); err != nil {
			return nil, nil, err
		}
		c.events.publish(Event{Type: EventTokenRefreshed, Session: session, Identity: identity})
	}
	return session, identity, nil
}

// SignInWithPassword authenticates and stores the resulting session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, *Identity, error) {
	tok, err := c.gotrue.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	session := sessionFromToken(tok, nil)
	identity, err := ParseAccessToken(session.AccessToken, c.jwtSecret)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	err = c.persist(session)
	c.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}
	c.events.publish(Event{Type: EventSignedIn, Session: session, Identity: identity})
	return session, identity, nil
}

// SignOut revokes the session remotely, then forgets it locally. When the remote
// call fails the local session is left untouched.
func (c *Client) SignOut(ctx context.Context) error {
	raw, ok := c.storage.Get(c.storageKey)
	if ok && raw != "" {
		if session, err := decodeSession(raw); err == nil && session.AccessToken != "" {
			if err := c.gotrue.Logout(ctx, session.AccessToken); err != nil && !sessionAlreadyGone(err) {
				return err
			}
		}
	}
	c.storage.Remove(c.storageKey)
	c.events.publish(Event{Type: EventSignedOut})
	return nil
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	session, identity, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return errs.NewNoSessionError()
	}
	user, err := c.gotrue.UpdatePassword(ctx, session.AccessToken, password)
	if err != nil {
		return err
	}
	session.User = user
	c.mu.Lock()
	err = c.persist(session)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.events.publish(Event{Type: EventUserUpdated, Session: session, Identity: identity})
	return nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.gotrue.Recover(ctx, email, redirectTo)
}

func (c *Client) persist(session *Session) error {
	encoded, err := encodeSession(session)
	if err != nil {
		return errs.NewInternalErrorWithCause("failed to encode session", err)
	}
	c.storage.Set(c.storageKey, encoded)
	return nil
}

func sessionAlreadyGone(err error) bool {
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
