package model

import "github.com/google/uuid"

// User roles carried in the JWT.
const (
	RoleSystemOwner   = "system_owner"
	RoleBusinessOwner = "business_owner"
	RoleEmployee      = "employee"
)

// Actor is the authenticated caller, extracted from JWT claims by the auth
// middleware. ShopID is the caller's assigned shop; it is nil for callers
// not bound to a shop (system owners).
type Actor struct {
	UserID       uuid.UUID
	ShopID       *uuid.UUID
	Role         string
	GlobalAccess bool
}

// IsGlobal reports whether the actor may operate across shop boundaries.
func (a Actor) IsGlobal() bool {
	return a.Role == RoleSystemOwner || a.GlobalAccess
}
