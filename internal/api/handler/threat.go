package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

type Threat struct {
	svc *core.ThreatService
}

func NewThreat(svc *core.ThreatService) *Threat {
	return &Threat{svc: svc}
}

// List godoc
//
//	@Summary		List threats
//	@Description	Returns a paginated list of threats with optional filters.
//	@Tags			Threats
//	@Security		ApiKeyAuth
//	@Param			severity	query		string	false	"Filter by severity"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			type		query		string	false	"Filter by threat type"
//	@Param			feed		query		string	false	"Filter by source feed"
//	@Param			search		query		string	false	"Search in indicator or title"
//	@Param			limit		query		int		false	"Page size"			default(50)
//	@Param			cursor		query		string	false	"Pagination cursor"
//	@Success		200			{object}	response.PaginatedResponse{items=[]model.Threat}
//	@Failure		500			{object}	response.ErrorResponse
//	@Router			/threats [get]
func (h *Threat) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := request.ParsePagination(r)

	filters := core.ThreatFilters{
		Severity: q.Get("severity"),
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Feed:     q.Get("feed"),
		Search:   q.Get("search"),
	}

	threats, hasMore, err := h.svc.List(r.Context(), filters, p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(threats) > 0 {
		nextCursor = threats[len(threats)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, threats, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a threat
//	@Description	Records a new threat indicator.
//	@Tags			Threats
//	@Security		ApiKeyAuth
//	@Param			body	body		request.CreateThreat	true	"Threat details"
//	@Success		201		{object}	model.Threat
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/threats [post]
func (h *Threat) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateThreat
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := &model.Threat{
		Type:          req.Type,
		Severity:      req.Severity,
		Score:         req.Score,
		Title:         req.Title,
		Description:   req.Description,
		Indicator:     req.Indicator,
		IndicatorKind: req.IndicatorKind,
		SourceIP:      req.SourceIP,
		CountryCode:   req.CountryCode,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}

	if err := h.svc.Create(r.Context(), t); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, t)
}

// Get godoc
//
//	@Summary		Get a threat
//	@Description	Returns a single threat by ID.
//	@Tags			Threats
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Threat ID"
//	@Success		200	{object}	model.Threat
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/threats/{id} [get]
func (h *Threat) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, t)
}

// UpdateStatus godoc
//
//	@Summary		Update threat status
//	@Description	Transitions a threat to active, mitigated, or archived.
//	@Tags			Threats
//	@Security		ApiKeyAuth
//	@Param			id		path	string						true	"Threat ID"
//	@Param			body	body	request.UpdateThreatStatus	true	"New status"
//	@Success		204
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/threats/{id}/status [put]
func (h *Threat) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.UpdateThreatStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, req.Status); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete godoc
//
//	@Summary		Delete a threat
//	@Description	Removes a threat indicator.
//	@Tags			Threats
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Threat ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/threats/{id} [delete]
func (h *Threat) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
