package request

// CreateIncident is the request body for creating an incident.
type CreateIncident struct {
	DedupeKey string  `json:"dedupe_key" validate:"required,max=200"`
	Type      string  `json:"type" validate:"required"`
	Severity  string  `json:"severity" validate:"required,oneof=low medium high critical"`
	Title     string  `json:"title" validate:"required,max=200"`
	Detail    string  `json:"detail" validate:"max=4000"`
	ThreatID  *string `json:"threat_id,omitempty"`
	Source    string  `json:"source" validate:"required"`
}

// UpdateIncident is the request body for updating an incident.
type UpdateIncident struct {
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=open investigating contained resolved escalated cancelled"`
	Severity   *string `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// ResolveIncident is the request body for resolving or cancelling an incident.
type ResolveIncident struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// AddIncidentEvent is the request body for appending a timeline event.
type AddIncidentEvent struct {
	Action string `json:"action" validate:"required,max=100"`
	Detail string `json:"detail" validate:"max=2000"`
}
