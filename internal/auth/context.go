package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
