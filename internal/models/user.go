package models

import "github.com/google/uuid"

type Role string

const (
	RoleUser     Role = "user"
	RolePharmacy Role = "pharmacy"
	RoleDoctor   Role = "doctor"
	RoleAdmin    Role = "admin"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// HasRole reports whether the caller holds any of the given roles.
func (c Caller) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
