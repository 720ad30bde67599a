package handler

import (
	"context"
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/sirupsen/logrus"
)

// OIDCAuthenticator is the part of auth.OIDCProvider used by the login flow.
type OIDCAuthenticator interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (*auth.ExchangeResult, error)
	ValidateClaims(claims *auth.OIDCClaims) error
	Session(claims *auth.OIDCClaims) *auth.Session
}

// AuthHandler handles the OIDC login flow.
type AuthHandler struct {
	provider  OIDCAuthenticator
	sessions  *auth.SessionManager
	states    *auth.StateStore
	logoutURL string
	logger    logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider OIDCAuthenticator, sessions *auth.SessionManager, states *auth.StateStore, logoutURL string, logger logrus.FieldLogger) *AuthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthHandler{
		provider:  provider,
		sessions:  sessions,
		states:    states,
		logoutURL: logoutURL,
		logger:    logger.WithField("component", "oidc"),
	}
}

// Login redirects to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	stateData, err := h.states.Generate(w)
	if err != nil {
		h.logger.WithError(err).Error("failed to generate OIDC state")
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to start login")
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(stateData.State, stateData.Nonce), http.StatusFound)
}

// Callback completes the login and creates the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.WithField("error", errParam).Warn("identity provider returned an error")
		respondError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "login failed: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "missing authorization code")
		return
	}

	stateData, err := h.states.Validate(r, r.URL.Query().Get("state"))
	h.states.Clear(w)
	if err != nil {
		h.logger.WithError(err).Warn("OIDC state validation failed")
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid login state")
		return
	}

	result, err := h.provider.Exchange(r.Context(), code, stateData.Nonce)
	if err != nil {
		h.logger.WithError(err).Warn("OIDC code exchange failed")
		respondError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "login failed")
		return
	}

	if err := h.provider.ValidateClaims(result.Claims); err != nil {
		h.logger.WithError(err).WithField("email", result.Claims.Email).Warn("OIDC claims rejected")
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, err.Error())
		return
	}

	session := h.provider.Session(result.Claims)
	if err := h.sessions.Create(w, session); err != nil {
		h.logger.WithError(err).Error("failed to create session")
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to create session")
		return
	}

	h.logger.WithFields(logrus.Fields{"email": session.Email, "role": session.Role}).Info("user logged in")
	http.Redirect(w, r, "/api/v1/me", http.StatusFound)
}

// Logout clears the session and optionally redirects to the provider.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	if h.logoutURL != "" {
		http.Redirect(w, r, h.logoutURL, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated caller.
func Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		handleError(w, domain.ErrUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, id)
}
