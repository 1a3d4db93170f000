package model

import (
	"encoding/json"
	"time"
)

// Monitor kinds.
const (
	MonitorFeed      = "feed"
	MonitorAutoBlock = "auto_block"
	MonitorStream    = "stream"
)

// Monitor statuses.
const (
	MonitorRunning = "running"
	MonitorStopped = "stopped"
	MonitorOffline = "offline"
)

// Monitor is a controllable monitoring unit: a feed poller, the auto-block
// switch, or the live stream. Workers heartbeat; the health cron flags
// stale heartbeats as offline.
type Monitor struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Kind          string          `json:"kind" db:"kind"`
	Status        string          `json:"status" db:"status"`
	AutoBlock     bool            `json:"auto_block" db:"auto_block"`
	Config        json.RawMessage `json:"config" db:"config"`
	LastHeartbeat *time.Time      `json:"last_heartbeat,omitempty" db:"last_heartbeat"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
