package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is a staff role within a clinic.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleManager         Role = "MANAGER"
	RolePhysiotherapist Role = "PHYSIOTHERAPIST"
	RoleReceptionist    Role = "RECEPTIONIST"
)

// ValidRole reports whether r is one of the four staff roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RolePhysiotherapist, RoleReceptionist:
		return true
	}
	return false
}

// Principal is the authenticated caller. It is resolved once per request by
// the auth middleware and passed explicitly into every service method.
type Principal struct {
	UserID   uuid.UUID
	Name     string
	Email    string
	Role     Role
	ClinicID uuid.UUID
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by the auth middleware.
// ok is false when the request was not authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
