package request

// Export is the request body for an export run. An empty dataset list
// exports everything.
type Export struct {
	Datasets []string `json:"datasets,omitempty" validate:"omitempty,dive,oneof=threats live_attacks blocked_attacks blocked_entities scan_results incidents"`
}
