package request

import "encoding/json"

// CreateMonitor is the request body for registering a monitoring unit.
type CreateMonitor struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Kind      string          `json:"kind" validate:"required,oneof=feed auto_block stream"`
	AutoBlock bool            `json:"auto_block"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// SetAutoBlock is the request body for flipping the auto-block switch.
type SetAutoBlock struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
