package middleware

import (
	"context"
	"strconv"

	"github.com/angelmondragon/photocard-store/internal/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the caller resolved by Auth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	id, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return id, ok
}

// WithIdentity injects the caller into the context. Auth uses it; tests use
// it to skip token minting.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}

func userIDString(ctx context.Context) string {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.ID == 0 {
		return ""
	}
	return strconv.FormatInt(id.ID, 10)
}
