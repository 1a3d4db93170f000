package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

type Attack struct {
	svc *core.AttackService
}

func NewAttack(svc *core.AttackService) *Attack {
	return &Attack{svc: svc}
}

// List godoc
//
//	@Summary		List live attacks
//	@Description	Returns a paginated list of live attacks for the attack map, newest first.
//	@Tags			Live Attacks
//	@Security		ApiKeyAuth
//	@Param			severity	query		string	false	"Filter by severity"
//	@Param			type		query		string	false	"Filter by attack type"
//	@Param			source_ip	query		string	false	"Filter by source IP"
//	@Param			blocked		query		bool	false	"Filter by blocked flag"
//	@Param			since		query		string	false	"Only attacks detected at or after this RFC 3339 time"
//	@Param			limit		query		int		false	"Page size"			default(50)
//	@Param			cursor		query		string	false	"Pagination cursor"
//	@Success		200			{object}	response.PaginatedResponse{items=[]model.LiveAttack}
//	@Failure		400			{object}	response.ErrorResponse
//	@Failure		500			{object}	response.ErrorResponse
//	@Router			/live-attacks [get]
func (h *Attack) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := request.ParsePagination(r)

	filters := core.AttackFilters{
		Severity: q.Get("severity"),
		Type:     q.Get("type"),
		SourceIP: q.Get("source_ip"),
	}
	if raw := q.Get("blocked"); raw != "" {
		blocked, err := strconv.ParseBool(raw)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid blocked filter")
			return
		}
		filters.Blocked = &blocked
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid since filter, want RFC 3339")
			return
		}
		filters.Since = &since
	}

	attacks, hasMore, err := h.svc.List(r.Context(), filters, p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(attacks) > 0 {
		nextCursor = attacks[len(attacks)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, attacks, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Record a live attack
//	@Description	Records an attack observation. The insert trigger fans it out to stream subscribers and the auto-block rule.
//	@Tags			Live Attacks
//	@Security		ApiKeyAuth
//	@Param			body	body		request.CreateLiveAttack	true	"Attack details"
//	@Success		201		{object}	model.LiveAttack
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/live-attacks [post]
func (h *Attack) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateLiveAttack
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := &model.LiveAttack{
		AttackType:    req.AttackType,
		Severity:      req.Severity,
		SourceIP:      req.SourceIP,
		SourceCountry: req.SourceCountry,
		SourceLat:     req.SourceLat,
		SourceLon:     req.SourceLon,
		Target:        req.Target,
		Protocol:      req.Protocol,
	}

	if err := h.svc.Record(r.Context(), a); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, a)
}

// Get godoc
//
//	@Summary		Get a live attack
//	@Description	Returns a single attack observation by ID.
//	@Tags			Live Attacks
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Attack ID"
//	@Success		200	{object}	model.LiveAttack
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/live-attacks/{id} [get]
func (h *Attack) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, a)
}

// ListBlocked godoc
//
//	@Summary		List blocked attacks
//	@Description	Returns a paginated history of attacks that were stopped, newest first.
//	@Tags			Live Attacks
//	@Security		ApiKeyAuth
//	@Param			limit	query		int		false	"Page size"			default(50)
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Success		200		{object}	response.PaginatedResponse{items=[]model.BlockedAttack}
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/blocked-attacks [get]
func (h *Attack) ListBlocked(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	blocked, hasMore, err := h.svc.ListBlocked(r.Context(), p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(blocked) > 0 {
		nextCursor = blocked[len(blocked)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, blocked, nextCursor, hasMore)
}
