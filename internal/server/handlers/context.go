package handlers

import (
	"context"

	"github.com/avlahov/forum-api/internal/models"
)

// contextKey is a private type for context keys defined in this package
type contextKey string

// identityKey carries the authenticated identity through the request context
const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the authenticated identity.
// Used by the auth middleware after a successful token check.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the authenticated identity from the context
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
