package model

import "time"

// Blocked entity kinds.
const (
	EntityIP     = "ip"
	EntityDomain = "domain"
	EntityURL    = "url"
	EntityHash   = "hash"
)

// BlockedEntity is a block-list entry. Active entries suppress matching
// traffic; unblocking sets unblocked_at rather than deleting the row.
type BlockedEntity struct {
	ID          string     `json:"id" db:"id"`
	Kind        string     `json:"kind" db:"kind"`
	Value       string     `json:"value" db:"value"`
	Reason      string     `json:"reason" db:"reason"`
	BlockedBy   string     `json:"blocked_by" db:"blocked_by"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	UnblockedAt *time.Time `json:"unblocked_at,omitempty" db:"unblocked_at"`
	UnblockedBy *string    `json:"unblocked_by,omitempty" db:"unblocked_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Active reports whether the entry is currently in force.
func (e *BlockedEntity) Active(now time.Time) bool {
	if e.UnblockedAt != nil {
		return false
	}
	if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
		return false
	}
	return true
}
