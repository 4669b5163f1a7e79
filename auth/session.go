package auth

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// User is the auth service's view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the token set persisted in Storage.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user,omitempty"`
}

// Identity is the authenticated principal decoded from a valid access token.
type Identity struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
	Claims    json.RawMessage `json:"-"`
}

// Expired reports whether the access token the identity came from has expired at now.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

func (s Session) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	if s.ExpiresAt > 0 {
		tok.Expiry = time.Unix(s.ExpiresAt, 0)
	}
	return tok
}

func sessionFromToken(tok *oauth2.Token, user *User) *Session {
	s := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		User:         user,
	}
	if !tok.Expiry.IsZero() {
		s.ExpiresAt = tok.Expiry.Unix()
	}
	if u, ok := tok.Extra("user").(*User); ok && u != nil {
		s.User = u
	}
	return s
}

func decodeSession(raw string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func encodeSession(s *Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
