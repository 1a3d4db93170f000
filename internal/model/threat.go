package model

import (
	"encoding/json"
	"time"
)

// Threat severities, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Threat statuses.
const (
	ThreatActive    = "active"
	ThreatMitigated = "mitigated"
	ThreatArchived  = "archived"
)

// Threat is an observed or feed-ingested threat indicator.
type Threat struct {
	ID            string          `json:"id" db:"id"`
	Type          string          `json:"type" db:"type"`
	Severity      string          `json:"severity" db:"severity"`
	Status        string          `json:"status" db:"status"`
	Score         int             `json:"score" db:"score"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Indicator     string          `json:"indicator" db:"indicator"`
	IndicatorKind string          `json:"indicator_kind" db:"indicator_kind"`
	SourceFeed    *string         `json:"source_feed,omitempty" db:"source_feed"`
	SourceIP      *string         `json:"source_ip,omitempty" db:"source_ip"`
	CountryCode   *string         `json:"country_code,omitempty" db:"country_code"`
	Latitude      *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64        `json:"longitude,omitempty" db:"longitude"`
	Metadata      json.RawMessage `json:"metadata" db:"metadata"`
	FirstSeenAt   time.Time       `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt    time.Time       `json:"last_seen_at" db:"last_seen_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ValidSeverity reports whether s is a known severity value.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SeverityAtLeast reports whether severity s ranks at or above min.
func SeverityAtLeast(s, min string) bool {
	return severityRank(s) >= severityRank(min)
}

func severityRank(s string) int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}
