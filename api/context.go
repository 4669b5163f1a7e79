package api

import (
	"context"

	"github.com/rpupo63/portfolio-backend/store"
)

type keyType string

const (
	authSessionKey keyType = "authSession"
	collectorKey   keyType = "notifications"
)

// ctxWithAuth adds the caller's auth session handle to the context
func ctxWithAuth(ctx context.Context, s *authSession) context.Context {
	return context.WithValue(ctx, authSessionKey, s)
}

// ctxGetAuth retrieves the caller's auth session handle, nil outside the session middleware
func ctxGetAuth(ctx context.Context) *authSession {
	s, _ := ctx.Value(authSessionKey).(*authSession)
	return s
}

func ctxWithCollector(ctx context.Context) (context.Context, *store.Collector) {
	ctx, c := store.WithCollector(ctx)
	return context.WithValue(ctx, collectorKey, c), c
}

// ctxGetNotifications returns what mutations reported so far in this request
func ctxGetNotifications(ctx context.Context) []store.Notification {
	if c, ok := ctx.Value(collectorKey).(*store.Collector); ok {
		return c.Notifications()
	}
	return nil
}
