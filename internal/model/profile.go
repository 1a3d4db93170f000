package model

import "time"

// Roles, lowest to highest privilege.
const (
	RoleViewer  = "viewer"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

// ValidRole reports whether r is a known role value.
func ValidRole(r string) bool {
	switch r {
	case RoleViewer, RoleAnalyst, RoleAdmin:
		return true
	}
	return false
}

// RoleAtLeast reports whether role ranks at or above min.
func RoleAtLeast(role, min string) bool {
	return roleRank(role) >= roleRank(min)
}

func roleRank(r string) int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAnalyst:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Profile is an operator account.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// UserRole assigns a role to a profile.
type UserRole struct {
	ProfileID string    `json:"profile_id" db:"profile_id"`
	Role      string    `json:"role" db:"role"`
	GrantedBy string    `json:"granted_by" db:"granted_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
