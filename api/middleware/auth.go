package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// UserLookup resolves the live user row behind a token.
type UserLookup interface {
	Principal(ctx context.Context, userID uuid.UUID) (*users.Principal, error)
}

// Auth validates a bearer token, its Redis session and the user row behind
// it, then seeds the request context with the acting user.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, lookup UserLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID, claims.UserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or revoked"))
					return
				}
			}

			isAdmin := claims.Role == pkgAuth.RoleAdmin
			if lookup != nil {
				principal, err := lookup.Principal(r.Context(), claims.UserID)
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
						responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists"))
						return
					}
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				if !principal.IsActive {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is deactivated"))
					return
				}
				// the row wins over the token so a demotion takes effect immediately
				isAdmin = principal.IsAdmin
			}

			actor := pkgAuth.Actor{UserID: claims.UserID, IsAdmin: isAdmin}
			ctx := WithActor(r.Context(), actor, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithAdmin(ctx, isAdmin)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
