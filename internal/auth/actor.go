// Package auth carries the authenticated actor through a request and issues
// the bearer tokens that identify it.
package auth

import (
	"context"

	"invoice-settlement/models"
)

// Actor is the authenticated user a request acts on behalf of. Every query that
// reads or writes invoice data receives one explicitly.
type Actor struct {
	UserID uint64
	Role   models.RoleType
	Name   string
}

func (a Actor) IsOwner() bool { return a.Role == models.RoleOwner }

// CanAccess reports whether the actor may see a record created by createdBy.
func (a Actor) CanAccess(createdBy uint64) bool {
	return a.IsOwner() || a.UserID == createdBy
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
