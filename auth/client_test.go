package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/errs"
)

const testKey = "sb-test-auth-token"

type fakeGoTrue struct {
	t          *testing.T
	userID     uuid.UUID
	refreshes  atomic.Int32
	logouts    atomic.Int32
	logoutCode atomic.Int32
}

func (f *fakeGoTrue) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "anon-key", r.Header.Get("apikey"))
		var body map[string]string
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["password"] != "correct-horse" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
		case "refresh_token":
			if body["refresh_token"] != "refresh-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh Token Not Found"}`))
				return
			}
			f.refreshes.Add(1)
		}
		expires := time.Now().Add(time.Hour)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  signToken(f.t, f.userID, expires),
			"token_type":    "bearer",
			"expires_at":    expires.Unix(),
			"refresh_token": "refresh-1",
			"user":          map[string]string{"id": f.userID.String(), "email": "owner@example.com"},
		})
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts.Add(1)
		assert.Contains(f.t, r.Header.Get("Authorization"), "Bearer ")
		code := int(f.logoutCode.Load())
		if code == 0 {
			code = http.StatusNoContent
		}
		w.WriteHeader(code)
	})
	mux.HandleFunc("PUT /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": f.userID.String(), "email": "owner@example.com"})
	})
	mux.HandleFunc("POST /auth/v1/recover", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "https://site.example/reset-password", r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newTestClient(t *testing.T, seed map[string]string) (*Client, *fakeGoTrue) {
	t.Helper()
	fake := &fakeGoTrue{t: t, userID: uuid.New()}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(NewGoTrue(srv.URL, "anon-key", srv.Client()), NewStorage(seed), testKey, testSecret), fake
}

func storedSession(t *testing.T, s Session) map[string]string {
	t.Helper()
	raw, err := encodeSession(&s)
	require.NoError(t, err)
	return map[string]string{testKey: raw}
}

func TestClientSignInStoresSession(t *testing.T) {
	client, fake := newTestClient(t, nil)
	events, unsubscribe := client.Subscribe()
	defer unsubscribe()

	_, identity, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, fake.userID, identity.ID)

	ev := <-events
	assert.Equal(t, EventSignedIn, ev.Type)

	session, restored, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, fake.userID, restored.ID)
	assert.Equal(t, "owner@example.com", session.User.Email)
	assert.Zero(t, fake.refreshes.Load())
}

func TestClientSignInRejectsBadPassword(t *testing.T) {
	client, _ := newTestClient(t, nil)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errs.StatusCode(err))
	assert.Empty(t, client.Storage().Keys())
}

func TestClientRefreshesExpiredSession(t *testing.T) {
	client, fake := newTestClient(t, nil)
	client.storage = NewStorage(storedSession(t, Session{
		AccessToken:  signToken(t, fake.userID, time.Now().Add(-time.Minute)),
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute).Unix(),
	}))
	events, unsubscribe := client.Subscribe()
	defer unsubscribe()

	session, identity, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, fake.userID, identity.ID)
	assert.Equal(t, int32(1), fake.refreshes.Load())
	assert.Equal(t, EventTokenRefreshed, (<-events).Type)
	assert.True(t, client.Storage().TakeDirty())
}

func TestClientDropsUnrefreshableSession(t *testing.T) {
	client, fake := newTestClient(t, nil)
	client.storage = NewStorage(storedSession(t, Session{
		AccessToken:  signToken(t, fake.userID, time.Now().Add(-time.Minute)),
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Minute).Unix(),
	}))

	session, identity, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, identity)
	assert.Empty(t, client.Storage().Keys())
}

func TestClientGetSessionWithGarbage(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{testKey: "not json"})
	session, _, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, client.Storage().Keys())
}

func TestClientSignOut(t *testing.T) {
	client, fake := newTestClient(t, nil)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))
	assert.Equal(t, int32(1), fake.logouts.Load())
	assert.Empty(t, client.Storage().Keys())
}

func TestClientSignOutRemoteFailureKeepsSession(t *testing.T) {
	client, fake := newTestClient(t, nil)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	fake.logoutCode.Store(http.StatusInternalServerError)

	require.Error(t, client.SignOut(context.Background()))
	assert.Equal(t, []string{testKey}, client.Storage().Keys())
}

func TestClientSignOutIgnoresMissingRemoteSession(t *testing.T) {
	client, fake := newTestClient(t, nil)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	fake.logoutCode.Store(http.StatusForbidden)

	require.NoError(t, client.SignOut(context.Background()))
	assert.Empty(t, client.Storage().Keys())
}

func TestClientUpdatePasswordAndRecover(t *testing.T) {
	client, _ := newTestClient(t, nil)
	assert.Error(t, client.UpdatePassword(context.Background(), "new-password"), "requires a session")

	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, client.UpdatePassword(context.Background(), "new-password"))
	require.NoError(t, client.ResetPasswordForEmail(context.Background(), "owner@example.com", "https://site.example/reset-password"))
}

func TestBootstrapAgainstClient(t *testing.T) {
	client, fake := newTestClient(t, nil)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)

	b := NewBootstrap(client, &fakeProfiles{}, client.Storage(), testTimeouts())
	defer b.Close()
	b.Start(context.Background())
	waitReady(t, b)

	require.NotNil(t, b.CurrentIdentity())
	assert.Equal(t, fake.userID, b.CurrentIdentity().ID)

	result := b.SignOut(context.Background())
	assert.False(t, result.Fallback)
	assert.Nil(t, b.CurrentIdentity())
}
