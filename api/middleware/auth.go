package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/api/validators"
	"github.com/angelmondragon/photocard-store/internal/auth"
	"github.com/angelmondragon/photocard-store/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
)

type identityResolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// Auth resolves the bearer token and seeds the request context with the
// caller. When sessions is set, tokens whose refresh session was revoked are
// rejected too.
func Auth(resolver identityResolver, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := validators.BearerToken(r.Header.Get("Authorization"))

			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			if sessions != nil && id.SessionID != "" {
				ok, err := sessions.HasSession(r.Context(), id.SessionID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Session expired"))
					return
				}
			}

			ctx := WithIdentity(r.Context(), id)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.ID)
				ctx = logg.WithRole(ctx, id.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
