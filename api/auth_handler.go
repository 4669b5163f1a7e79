package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/errs"
)

const minPasswordLength = 6

type authHandler struct {
	responder  Responder
	logger     zerolog.Logger
	registry   *auth.Registry
	wait       time.Duration
	recoverURL string
}

func newAuthHandler(registry *auth.Registry, wait time.Duration, siteURL string) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		registry:   registry,
		wait:       wait,
		recoverURL: strings.TrimRight(siteURL, "/") + "/reset-password",
	}
}

// login signs in with email and password
// @Summary Log in
// @Description Signs in and applies the session before responding
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Email and password"
// @Success 200 {object} LoginResponse "Signed-in identity"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing email or password"
// @Failure 401 {object} ErrorResponse "Unauthorized - Invalid login credentials"
// @Router /login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, maxPayloadBytes, "login", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		entry := ctxGetAuth(r.Context()).Entry()
		identity, err := entry.Bootstrap.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, LoginResponse{Identity: identity, Redirect: "/admin"})
	}
}

// logout signs out with a bounded wait. When the auth service could not be
// reached the local session is wiped and the browser told to drop its state.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} SignOutResponse "Signed out"
// @Router /logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := ctxGetAuth(r.Context())
		entry := session.Existing()
		if entry == nil {
			h.responder.WriteJSON(w, SignOutResponse{SignedOut: true, Redirect: "/"})
			return
		}
		result := entry.Bootstrap.SignOut(r.Context())
		if result.Fallback {
			w.Header().Set("Clear-Site-Data", `"storage"`)
			h.registry.Release(session.ID())
			h.logger.Warn().Int("clearedKeys", result.ClearedKeys).Msg("Signed out locally")
		}
		h.responder.WriteJSON(w, SignOutResponse{SignedOut: true, Fallback: result.Fallback, Redirect: "/"})
	}
}

// session reports the caller's authentication state
// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse "Identity, profile and readiness"
// @Router /session [get]
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := ctxGetAuth(r.Context()).Existing()
		if entry == nil {
			h.responder.WriteJSON(w, SessionResponse{Ready: true, Phase: auth.PhaseReady.String()})
			return
		}
		auth.AwaitReady(r.Context(), entry.Bootstrap.Ready(), h.wait)
		h.responder.WriteJSON(w, sessionResponse(entry.Bootstrap))
	}
}

// refreshProfile re-reads the caller's profile
// @Summary Refresh profile
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse "Session with the refreshed profile"
// @Failure 303 "Redirect to /login for anonymous callers"
// @Failure 504 {object} ErrorResponse "Gateway Timeout - Profile fetch timed out"
// @Router /session/profile [post]
func (h authHandler) refreshProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := ctxGetAuth(r.Context()).Entry()
		if err := entry.Bootstrap.RefreshProfile(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, sessionResponse(entry.Bootstrap))
	}
}

func sessionResponse(b *auth.Bootstrap) SessionResponse {
	return SessionResponse{
		Ready:    b.IsInitializationComplete(),
		Phase:    b.Phase().String(),
		Identity: b.CurrentIdentity(),
		Profile:  b.CurrentProfile(),
		IsAdmin:  b.IsAdmin(),
	}
}

// resetPassword sets a new password for the signed-in (usually recovering)
// user, then drops the session so the user signs in again.
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param password body ResetPasswordRequest true "New password and confirmation"
// @Success 200 {object} RedirectResponse "Password updated"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid password"
// @Failure 303 "Redirect to /login for anonymous callers"
// @Router /reset-password [post]
func (h authHandler) resetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := decodeJSON(w, r, maxPayloadBytes, "password reset", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if len(req.Password) < minPasswordLength {
			h.responder.WriteError(w, errs.NewInvalidFieldError("password", "must be at least 6 characters long"))
			return
		}
		if req.Password != req.ConfirmPassword {
			h.responder.WriteError(w, errs.NewInvalidFieldError("confirm_password", "passwords do not match"))
			return
		}

		session := ctxGetAuth(r.Context())
		entry := session.Entry()
		if err := entry.Client.UpdatePassword(r.Context(), req.Password); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry.Storage.RemovePrefix(auth.VendorPrefix)
		h.registry.Release(session.ID())
		h.responder.WriteJSON(w, RedirectResponse{Status: "password_updated", Redirect: loginPath})
	}
}

// requestPasswordReset emails a recovery link
// @Summary Request password reset
// @Tags Auth
// @Accept json
// @Produce json
// @Param email body RecoveryRequest true "Account email"
// @Success 202 {object} StatusResponse "Recovery email sent"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing email"
// @Router /reset-password/request [post]
func (h authHandler) requestPasswordReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecoveryRequest
		if err := decodeJSON(w, r, maxPayloadBytes, "password recovery", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		}

		entry := ctxGetAuth(r.Context()).Entry()
		if err := entry.Client.ResetPasswordForEmail(r.Context(), req.Email, h.recoverURL); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusAccepted, StatusResponse{Status: "sent"})
	}
}
