package request

import "time"

// BlockEntity is the request body for blocking an entity.
type BlockEntity struct {
	Kind      string     `json:"kind" validate:"required,oneof=ip domain url hash"`
	Value     string     `json:"value" validate:"required,max=500"`
	Reason    string     `json:"reason" validate:"required,max=1000"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	AttackID  *string    `json:"attack_id,omitempty"`
}
