package auth

import (
	"encoding/json"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/errs"
)

// ParseAccessToken validates an HS256 access token with secret and returns its identity.
// With an empty secret the signature is not checked; tokens then must only ever come
// from the server-side session store.
func ParseAccessToken(token string, secret []byte) (*Identity, error) {
	claims := jwt.MapClaims{}
	var err error
	if len(secret) == 0 {
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
		if err == nil {
			err = jwt.NewValidator(jwt.WithExpirationRequired()).Validate(claims)
		}
	} else {
		_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, errs.NewTokenExpiredError()
	}
	if err != nil {
		return nil, errs.NewInvalidTokenError(err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errs.NewInvalidTokenError(err)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errs.NewInvalidTokenError(err)
	}

	identity := &Identity{ID: id}
	identity.Email, _ = claims["email"].(string)
	identity.Role, _ = claims["role"].(string)
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		identity.ExpiresAt = exp.Time
	}
	if raw, err := json.Marshal(claims); err == nil {
		identity.Claims = raw
	}
	return identity, nil
}
