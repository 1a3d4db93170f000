package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

type Block struct {
	svc     *core.BlockService
	attacks *core.AttackService
}

func NewBlock(svc *core.BlockService, attacks *core.AttackService) *Block {
	return &Block{svc: svc, attacks: attacks}
}

// List godoc
//
//	@Summary		List blocked entities
//	@Description	Returns a paginated list of block-list entries.
//	@Tags			Blocked Entities
//	@Security		ApiKeyAuth
//	@Param			kind	query		string	false	"Filter by kind (ip, domain, url, hash)"
//	@Param			active	query		bool	false	"Only entries currently in force"
//	@Param			search	query		string	false	"Search in value or reason"
//	@Param			limit	query		int		false	"Page size"			default(50)
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Success		200		{object}	response.PaginatedResponse{items=[]model.BlockedEntity}
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/blocked-entities [get]
func (h *Block) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := request.ParsePagination(r)

	filters := core.BlockFilters{
		Kind:       q.Get("kind"),
		ActiveOnly: q.Get("active") == "true",
		Search:     q.Get("search"),
	}

	entities, hasMore, err := h.svc.List(r.Context(), filters, p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(entities) > 0 {
		nextCursor = entities[len(entities)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, entities, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Block an entity
//	@Description	Adds an entity to the block list. Re-blocking an already active value returns the existing entry. When attack_id is given the originating attack is marked blocked.
//	@Tags			Blocked Entities
//	@Security		ApiKeyAuth
//	@Param			body	body		request.BlockEntity	true	"Entity details"
//	@Success		201		{object}	model.BlockedEntity
//	@Success		200		{object}	model.BlockedEntity
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/blocked-entities [post]
func (h *Block) Create(w http.ResponseWriter, r *http.Request) {
	var req request.BlockEntity
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := actorFromRequest(r)
	e := &model.BlockedEntity{
		Kind:      req.Kind,
		Value:     req.Value,
		Reason:    req.Reason,
		BlockedBy: actor,
		ExpiresAt: req.ExpiresAt,
	}

	created, err := h.svc.Block(r.Context(), e)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	if created && req.Kind == model.EntityIP {
		var attackID string
		if req.AttackID != nil {
			attackID = *req.AttackID
		}
		if err := h.attacks.MarkBlocked(r.Context(), attackID, e.ID, req.Value, req.Reason, actor); err != nil {
			response.WriteServiceError(w, err)
			return
		}
	}

	if created {
		response.WriteJSON(w, http.StatusCreated, e)
	} else {
		response.WriteJSON(w, http.StatusOK, e)
	}
}

// Get godoc
//
//	@Summary		Get a blocked entity
//	@Description	Returns a single block-list entry by ID.
//	@Tags			Blocked Entities
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Entity ID"
//	@Success		200	{object}	model.BlockedEntity
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/blocked-entities/{id} [get]
func (h *Block) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, e)
}

// Unblock godoc
//
//	@Summary		Unblock an entity
//	@Description	Lifts a block. The entry is kept for history with unblocked_at set.
//	@Tags			Blocked Entities
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Entity ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/blocked-entities/{id} [delete]
func (h *Block) Unblock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Unblock(r.Context(), id, actorFromRequest(r)); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
