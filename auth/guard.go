package auth

import (
	"context"
	"time"
)

type Decision int

const (
	DecisionLoading Decision = iota
	DecisionRedirectLogin
	DecisionAccessDenied
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionAccessDenied:
		return "access-denied"
	case DecisionAllow:
		return "allow"
	}
	return "unknown"
}

// Decide is the route guard. Nothing protected is allowed before the
// bootstrap is ready. Anonymous callers and callers whose access token has
// expired go to login, and admin routes additionally require an admin profile.
func Decide(state State, requiresAdmin bool) Decision {
	if state == nil || !state.IsInitializationComplete() {
		return DecisionLoading
	}
	if identity := state.CurrentIdentity(); identity == nil || identity.Expired(time.Now()) {
		return DecisionRedirectLogin
	}
	if requiresAdmin && !state.IsAdmin() {
		return DecisionAccessDenied
	}
	return DecisionAllow
}

// AwaitReady blocks until ready is closed, wait elapses or ctx ends, and reports
// whether readiness was reached.
func AwaitReady(ctx context.Context, ready <-chan struct{}, wait time.Duration) bool {
	select {
	case <-ready:
		return true
	default:
	}
	if wait <= 0 {
		return false
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
