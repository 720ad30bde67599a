package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/sirupsen/logrus"
)

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	Store        storage.Storage
	BootstrapKey string
	Sessions     *auth.SessionManager // nil disables session cookies
	Logger       logrus.FieldLogger
}

// Auth resolves the caller from a bearer API key or an OIDC session cookie
// and stores the identity in the request context.
func Auth(opts AuthOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if opts.Sessions != nil {
					if session, err := opts.Sessions.Get(r); err == nil {
						next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, session.Identity())))
						return
					}
				}
				writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid authorization header format")
				return
			}

			apiKey := strings.TrimPrefix(authHeader, "Bearer ")
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "empty API key")
				return
			}

			id, err := resolveAPIKey(ctx, opts.Store, opts.BootstrapKey, apiKey)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidAPIKey) {
					writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid API key")
					return
				}
				logger.WithError(err).Error("API key lookup failed")
				writeError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, id)))
		})
	}
}

// resolveAPIKey maps a presented key to an identity. The bootstrap key is
// honoured only while no keys exist.
func resolveAPIKey(ctx context.Context, store storage.Storage, bootstrapKey, apiKey string) (domain.Identity, error) {
	keyCount, err := store.CountAPIKeys(ctx)
	if err != nil {
		return domain.Identity{}, err
	}

	if keyCount == 0 && bootstrapKey != "" && auth.ConstantTimeCompare(apiKey, bootstrapKey) {
		return domain.Identity{
			Subject: "bootstrap",
			Name:    "Bootstrap Key",
			Role:    domain.RoleAdmin,
			Source:  domain.IdentitySourceBootstrap,
		}, nil
	}

	storedKey, err := store.GetAPIKeyByHash(ctx, auth.HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrInvalidAPIKey
		}
		return domain.Identity{}, err
	}

	// Update last used timestamp (fire and forget)
	go func(id string) {
		_ = store.UpdateAPIKeyLastUsed(context.Background(), id)
	}(storedKey.ID)

	role := storedKey.Role
	if !role.Valid() {
		role = domain.RoleViewer
	}
	return domain.Identity{
		Subject: storedKey.ID,
		Name:    storedKey.Name,
		Role:    role,
		Source:  domain.IdentitySourceAPIKey,
	}, nil
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "unauthorized")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, "insufficient role")
		})
	}
}
