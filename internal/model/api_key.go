package model

import "time"

// APIKey is a machine credential. Role carries the same admin/analyst/viewer
// enum as user roles and gates what the key may call.
type APIKey struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"`
	Role      string     `json:"role" db:"role"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
