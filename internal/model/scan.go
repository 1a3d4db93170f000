package model

import (
	"encoding/json"
	"time"
)

// Scan types, one per scanner surface.
const (
	ScanWebsite    = "website"
	ScanAPI        = "api"
	ScanQR         = "qr"
	ScanStatic     = "static"
	ScanMultiAgent = "multi_agent"
)

// Scan result statuses. A "degraded" scan completed with the fallback
// verdict because the analysis backend failed.
const (
	ScanCompleted = "completed"
	ScanDegraded  = "degraded"
	ScanRejected  = "rejected"
)

// ScanResult is the stored outcome of a single scan request.
type ScanResult struct {
	ID              string          `json:"id" db:"id"`
	ScanType        string          `json:"scan_type" db:"scan_type"`
	Target          string          `json:"target" db:"target"`
	Status          string          `json:"status" db:"status"`
	RiskScore       int             `json:"risk_score" db:"risk_score"`
	Severity        string          `json:"severity" db:"severity"`
	Summary         string          `json:"summary" db:"summary"`
	Findings        json.RawMessage `json:"findings" db:"findings"`
	Recommendations json.RawMessage `json:"recommendations" db:"recommendations"`
	RequestedBy     string          `json:"requested_by" db:"requested_by"`
	DurationMS      int64           `json:"duration_ms" db:"duration_ms"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
