package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/rpupo63/portfolio-backend/errs"
)

// GoTrue is a thin REST client for the Supabase Auth service.
type GoTrue struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// tokenResponse represents the body returned by the /token endpoint
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// errorResponse covers the error shapes GoTrue has used across versions
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func NewGoTrue(supabaseURL, anonKey string, httpClient *http.Client) *GoTrue {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoTrue{
		baseURL:    strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		apiKey:     anonKey,
		httpClient: httpClient,
	}
}

// PasswordGrant signs in with email and password.
func (g *GoTrue) PasswordGrant(ctx context.Context, email, password string) (*oauth2.Token, error) {
	var resp tokenResponse
	err := g.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		if errs.StatusCode(err) == http.StatusBadRequest {
			return nil, errs.NewInvalidCredentialsError()
		}
		return nil, err
	}
	return resp.token(), nil
}

// RefreshGrant exchanges a refresh token for a new token pair.
func (g *GoTrue) RefreshGrant(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	var resp tokenResponse
	err := g.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.token(), nil
}

// Logout revokes the refresh tokens of the session owning accessToken.
func (g *GoTrue) Logout(ctx context.Context, accessToken string) error {
	return g.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// UpdatePassword changes the password of the user owning accessToken.
func (g *GoTrue) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	var user User
	if err := g.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Recover sends a password recovery email that links back to redirectTo.
func (g *GoTrue) Recover(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return g.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil)
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal auth request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewServiceUnavailableError("auth", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(respBody, &e)
		msg := e.text()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		log.Debug().Str("path", path).Int("status", resp.StatusCode).Str("message", msg).Msg("Auth service rejected request")
		return errs.NewServiceError("auth", resp.StatusCode, msg)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return nil
}

func (r tokenResponse) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		tok.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	user := r.User
	return tok.WithExtra(map[string]any{"user": &user})
}

// refreshSource is an oauth2.TokenSource backed by the refresh-token grant.
type refreshSource struct {
	ctx          context.Context
	gotrue       *GoTrue
	refreshToken string
}

func (s *refreshSource) Token() (*oauth2.Token, error) {
	if s.refreshToken == "" {
		return nil, errs.NewNoSessionError()
	}
	return s.gotrue.RefreshGrant(s.ctx, s.refreshToken)
}
