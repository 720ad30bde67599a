package auth

import (
	"context"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// RoleGuard grants catalog edits to callers whose context identity holds an
// editing role. It is evaluated on every mutation.
type RoleGuard struct{}

// CanEdit reports whether the caller in ctx may edit the catalog.
func (RoleGuard) CanEdit(ctx context.Context) bool {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return id.Role.CanEdit()
}

// StaticGuard answers every permission check with the same role.
type StaticGuard struct {
	Role domain.Role
}

// CanEdit reports whether the static role may edit.
func (g StaticGuard) CanEdit(context.Context) bool {
	return g.Role.CanEdit()
}
