package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
)

type Profile struct {
	svc *core.ProfileService
}

func NewProfile(svc *core.ProfileService) *Profile {
	return &Profile{svc: svc}
}

// List godoc
//
//	@Summary		List profiles
//	@Description	Returns a paginated list of operator accounts.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			limit	query		int		false	"Page size"			default(50)
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Success		200		{object}	response.PaginatedResponse{items=[]model.Profile}
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/profiles [get]
func (h *Profile) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	profiles, hasMore, err := h.svc.List(r.Context(), p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(profiles) > 0 {
		nextCursor = profiles[len(profiles)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, profiles, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a profile
//	@Description	Registers an operator account. Role defaults to viewer when omitted.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			body	body		request.CreateProfile	true	"Profile details"
//	@Success		201		{object}	model.Profile
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/profiles [post]
func (h *Profile) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProfile
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.svc.Create(r.Context(), req.Email, req.DisplayName, req.Password, req.Role, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, profile)
}

// Get godoc
//
//	@Summary		Get a profile
//	@Description	Returns a single operator account by ID.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Profile ID"
//	@Success		200	{object}	model.Profile
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/profiles/{id} [get]
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, profile)
}

// GetRole godoc
//
//	@Summary		Get a profile's role
//	@Description	Returns the role assigned to a profile. Unassigned profiles report viewer.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Profile ID"
//	@Success		200	{object}	map[string]string
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/profiles/{id}/role [get]
func (h *Profile) GetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, err := h.svc.RoleOf(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"profile_id": id, "role": role})
}

// SetRole godoc
//
//	@Summary		Set a profile's role
//	@Description	Grants or changes the role assigned to a profile.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			id		path	string			true	"Profile ID"
//	@Param			body	body	request.SetRole	true	"New role"
//	@Success		204
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/profiles/{id}/role [put]
func (h *Profile) SetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.SetRole
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetRole(r.Context(), id, req.Role, actorFromRequest(r)); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete godoc
//
//	@Summary		Delete a profile
//	@Description	Removes an operator account and its role assignment.
//	@Tags			Profiles
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Profile ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/profiles/{id} [delete]
func (h *Profile) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
