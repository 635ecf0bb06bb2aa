package models

import (
	"context"
)

type identityContextKey struct{}

// Identity is the caller resolved from a bearer token by the auth collaborator.
type Identity struct {
	UserId string
	Email  string
	Role   string
}

// WithIdentity attaches the authenticated caller to a context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// GetIdentity retrieves the authenticated caller from context, or nil if absent.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
