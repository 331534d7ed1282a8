package store

import (
	"gorm.io/gorm"

	"invoice-settlement/internal/analytics"
	"invoice-settlement/internal/auth"
)

// ScopedQuery restricts q to rows whose creator column matches an admin
// actor. Owners see every row.
func ScopedQuery(actor auth.Actor, q *gorm.DB, column string) *gorm.DB {
	if actor.IsOwner() {
		return q
	}
	return q.Where(column+" = ?", actor.UserID)
}

func scopedAggregate(scope analytics.Scope, q *gorm.DB, column string) *gorm.DB {
	if id, ok := scope.CreatedBy(); ok {
		return q.Where(column+" = ?", id)
	}
	return q
}
