// Package identity resolves the current principal. Token acquisition is the
// auth backend's job; this layer only asks "who is calling right now".
package identity

import (
	"context"
)

// Provider yields the current principal id, or false when no one is
// authenticated.
type Provider interface {
	CurrentPrincipalID(ctx context.Context) (string, bool)
}

type principalKey struct{}

// WithPrincipal stamps a principal id onto the context. The auth middleware
// calls this after verifying the bearer token and session.
func WithPrincipal(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalKey{}, id)
}

// FromContext reads a previously stamped principal id.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey{}).(string)
	return id, ok && id != ""
}

// ContextProvider resolves the principal from the request context.
type ContextProvider struct{}

func (ContextProvider) CurrentPrincipalID(ctx context.Context) (string, bool) {
	return FromContext(ctx)
}

// Static always answers with a fixed principal. Used by the seeder and tests.
type Static struct {
	ID string
}

func (s Static) CurrentPrincipalID(ctx context.Context) (string, bool) {
	return s.ID, s.ID != ""
}
