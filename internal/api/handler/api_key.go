package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// createAPIKeyResponse carries the raw key, shown once at creation.
type createAPIKeyResponse struct {
	Key    model.APIKey `json:"key"`
	RawKey string       `json:"raw_key"`
}

// List godoc
//
//	@Summary		List API keys
//	@Description	Returns a paginated list of API keys. Only the prefix of each key is stored.
//	@Tags			API Keys
//	@Security		ApiKeyAuth
//	@Param			limit	query		int		false	"Page size"			default(50)
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Success		200		{object}	response.PaginatedResponse{items=[]model.APIKey}
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/api-keys [get]
func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	keys, hasMore, err := h.svc.List(r.Context(), p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create an API key
//	@Description	Creates an API key with the given role. The raw key is returned once and never stored.
//	@Tags			API Keys
//	@Security		ApiKeyAuth
//	@Param			body	body		request.CreateAPIKey	true	"Key details"
//	@Success		201		{object}	handler.createAPIKeyResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/api-keys [post]
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.Name, req.Role)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, createAPIKeyResponse{Key: *key, RawKey: rawKey})
}

// Revoke godoc
//
//	@Summary		Revoke an API key
//	@Description	Revokes an API key. Revoked keys stop authenticating immediately.
//	@Tags			API Keys
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Key ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/api-keys/{id} [delete]
func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Revoke(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
