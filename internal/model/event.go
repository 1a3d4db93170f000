package model

import "encoding/json"

// Security event kinds published on the security_events channel.
const (
	EventLiveAttack = "live_attack"
	EventThreat     = "threat"
)

// SecurityEvent is the payload notified by the database triggers whenever a
// live attack or threat row is inserted. The stream hub fans it out to
// websocket subscribers and the auto-blocker reacts to it.
type SecurityEvent struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	Severity string          `json:"severity"`
	SourceIP string          `json:"source_ip,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
