package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID uuid.UUID
	Role   domain.Role
}

type actorKey struct{}

// WithActor returns a context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
