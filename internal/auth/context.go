// ABOUTME: Authenticated identity type for tracking users through request handlers
// ABOUTME: Provides WithIdentity/IdentityFromContext for propagating identity via context

package auth

import (
	"context"
)

// Identity holds the authenticated user information extracted from a bearer
// token. It is populated by the auth middleware and can be retrieved from
// context in handlers.
type Identity struct {
	UserID   int64
	Username string
}

// identityKey is the key type for storing Identity in context.Context.
type identityKey struct{}

// WithIdentity returns a new context with the Identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the Identity from the context.
// The second return value is false if no identity is present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
