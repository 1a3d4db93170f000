package request

// CreateLiveAttack is the request body for recording a live attack.
type CreateLiveAttack struct {
	AttackType    string   `json:"attack_type" validate:"required"`
	Severity      string   `json:"severity" validate:"required,oneof=low medium high critical"`
	SourceIP      string   `json:"source_ip" validate:"required,ip"`
	SourceCountry *string  `json:"source_country,omitempty" validate:"omitempty,len=2"`
	SourceLat     *float64 `json:"source_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	SourceLon     *float64 `json:"source_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	Target        string   `json:"target" validate:"required,max=200"`
	Protocol      *string  `json:"protocol,omitempty"`
}
