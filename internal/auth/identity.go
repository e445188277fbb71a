package auth

import (
	"context"

	"roombook/pkg/model"
)

// Identity is the authenticated caller.
type Identity struct {
	ID   string
	Role model.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
