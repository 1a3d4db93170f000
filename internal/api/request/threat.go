package request

// CreateThreat is the request body for creating a threat.
type CreateThreat struct {
	Type          string   `json:"type" validate:"required"`
	Severity      string   `json:"severity" validate:"required,oneof=low medium high critical"`
	Score         int      `json:"score" validate:"omitempty,min=0,max=100"`
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=4000"`
	Indicator     string   `json:"indicator" validate:"required,max=500"`
	IndicatorKind string   `json:"indicator_kind" validate:"required,oneof=ip domain url hash"`
	SourceIP      *string  `json:"source_ip,omitempty" validate:"omitempty,ip"`
	CountryCode   *string  `json:"country_code,omitempty" validate:"omitempty,len=2"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

// UpdateThreatStatus is the request body for a threat status transition.
type UpdateThreatStatus struct {
	Status string `json:"status" validate:"required,oneof=active mitigated archived"`
}
