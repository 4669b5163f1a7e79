package database

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Claims are the JWT claims of the caller. When row-level security is enforced
// every statement runs in a transaction that exposes them to Postgres policies.
type Claims struct {
	Subject string
	Role    string
	Raw     json.RawMessage
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// Postgres roles a request may assume. Anything else falls back to anon.
var postgresRoles = map[string]string{
	"anon":          "anon",
	"authenticated": "authenticated",
}

type executor struct {
	db         *gorm.DB
	enforceRLS bool
}

// run executes fn against a connection scoped to the caller's claims.
// Without enforcement fn receives the plain pool.
func (e executor) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !e.enforceRLS {
		return fn(e.db.WithContext(ctx))
	}
	return e.tx(ctx, fn)
}

// tx always opens a transaction, applying claims first when enforcement is on.
func (e executor) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.enforceRLS {
			if err := applyClaims(ctx, tx); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

func applyClaims(ctx context.Context, tx *gorm.DB) error {
	claims, ok := ClaimsFrom(ctx)
	raw := "{}"
	role := "anon"
	if ok {
		if len(claims.Raw) > 0 {
			raw = string(claims.Raw)
		}
		if r, known := postgresRoles[claims.Role]; known {
			role = r
		}
	}
	if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", raw).Error; err != nil {
		return fmt.Errorf("error applying request claims: %w", err)
	}
	if err := tx.Exec("SET LOCAL ROLE " + role).Error; err != nil {
		return fmt.Errorf("error switching to role %s: %w", role, err)
	}
	return nil
}
