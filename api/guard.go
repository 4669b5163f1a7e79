package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
)

const loginPath = "/login"

type guardMiddleware struct {
	responder Responder
	wait      time.Duration
}

func newGuardMiddleware(wait time.Duration) guardMiddleware {
	logger := log.With().Str("handlerName", "guardMiddleware").Logger()
	return guardMiddleware{
		responder: NewResponder(logger),
		wait:      wait,
	}
}

// require protects the routes below it. Nothing behind the guard runs until
// the caller's session has finished initializing.
func (m guardMiddleware) require(requiresAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := ctxGetAuth(r.Context())
			if session == nil {
				m.responder.WriteError(w, errs.NewInternalError("route guard used without a session"))
				return
			}
			entry := session.Existing()
			if entry == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			auth.AwaitReady(r.Context(), entry.Bootstrap.Ready(), m.wait)

			switch auth.Decide(entry.Bootstrap, requiresAdmin) {
			case auth.DecisionLoading:
				w.Header().Set("Retry-After", "1")
				m.responder.WriteJSONStatus(w, http.StatusAccepted, StatusResponse{Status: "loading"})
			case auth.DecisionRedirectLogin:
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
			case auth.DecisionAccessDenied:
				w.Header().Set("Refresh", "0; url=/")
				m.responder.WriteJSONStatus(w, http.StatusForbidden, AccessDeniedResponse{
					Error:    "Access Denied",
					Message:  "You don't have permission to access this page.",
					Redirect: "/",
				})
			default:
				// the identity may have settled while waiting
				ctx := database.WithClaims(r.Context(), claimsOf(entry.Bootstrap.CurrentIdentity()))
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
