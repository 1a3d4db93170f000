package handler

import (
	"net/http"

	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
)

type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(svc *core.DashboardService) *Dashboard {
	return &Dashboard{svc: svc}
}

// Stats godoc
//
//	@Summary		Dashboard statistics
//	@Description	Returns aggregate counters for the overview page: threat totals by severity, 24h attack and block counts, open incidents, active blocks, running monitors, and mean time to resolution.
//	@Tags			Dashboard
//	@Security		ApiKeyAuth
//	@Success		200	{object}	core.DashboardStats
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/dashboard/stats [get]
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
