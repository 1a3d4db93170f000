package model

import "time"

// LiveAttack is a single attack observation shown on the live map.
type LiveAttack struct {
	ID            string    `json:"id" db:"id"`
	AttackType    string    `json:"attack_type" db:"attack_type"`
	Severity      string    `json:"severity" db:"severity"`
	SourceIP      string    `json:"source_ip" db:"source_ip"`
	SourceCountry *string   `json:"source_country,omitempty" db:"source_country"`
	SourceLat     *float64  `json:"source_lat,omitempty" db:"source_lat"`
	SourceLon     *float64  `json:"source_lon,omitempty" db:"source_lon"`
	Target        string    `json:"target" db:"target"`
	Protocol      *string   `json:"protocol,omitempty" db:"protocol"`
	Blocked       bool      `json:"blocked" db:"blocked"`
	DetectedAt    time.Time `json:"detected_at" db:"detected_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BlockedAttack records that an attack was stopped, and by what.
type BlockedAttack struct {
	ID        string    `json:"id" db:"id"`
	AttackID  *string   `json:"attack_id,omitempty" db:"attack_id"`
	EntityID  *string   `json:"entity_id,omitempty" db:"entity_id"`
	SourceIP  string    `json:"source_ip" db:"source_ip"`
	Reason    string    `json:"reason" db:"reason"`
	BlockedBy string    `json:"blocked_by" db:"blocked_by"`
	BlockedAt time.Time `json:"blocked_at" db:"blocked_at"`
}
