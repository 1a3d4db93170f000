package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

type Monitor struct {
	svc       *core.MonitorService
	incidents *core.IncidentService
}

func NewMonitor(svc *core.MonitorService, incidents *core.IncidentService) *Monitor {
	return &Monitor{svc: svc, incidents: incidents}
}

// List godoc
//
//	@Summary		List monitors
//	@Description	Returns all monitoring units and their current status.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Success		200	{array}		model.Monitor
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/monitors [get]
func (h *Monitor) List(w http.ResponseWriter, r *http.Request) {
	monitors, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, monitors)
}

// Create godoc
//
//	@Summary		Register a monitor
//	@Description	Registers a monitoring unit. New monitors start stopped.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			body	body		request.CreateMonitor	true	"Monitor details"
//	@Success		201		{object}	model.Monitor
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/monitors [post]
func (h *Monitor) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMonitor
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := &model.Monitor{
		Name:      req.Name,
		Kind:      req.Kind,
		AutoBlock: req.AutoBlock,
		Config:    req.Config,
	}

	if err := h.svc.Create(r.Context(), m); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, m)
}

// Get godoc
//
//	@Summary		Get a monitor
//	@Description	Returns a single monitoring unit by ID.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Monitor ID"
//	@Success		200	{object}	model.Monitor
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/monitors/{id} [get]
func (h *Monitor) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, m)
}

// Start godoc
//
//	@Summary		Start a monitor
//	@Description	Transitions a monitor to running.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Monitor ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/monitors/{id}/start [post]
func (h *Monitor) Start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Start(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stop godoc
//
//	@Summary		Stop a monitor
//	@Description	Transitions a monitor to stopped.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Monitor ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/monitors/{id}/stop [post]
func (h *Monitor) Stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Stop(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAutoBlock godoc
//
//	@Summary		Set the auto-block switch
//	@Description	Enables or disables automatic blocking for a monitor. Auto-blocking fires when any running monitor has it enabled.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			id		path	string				true	"Monitor ID"
//	@Param			body	body	request.SetAutoBlock	true	"Switch state"
//	@Success		204
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/monitors/{id}/auto-block [put]
func (h *Monitor) SetAutoBlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.SetAutoBlock
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetAutoBlock(r.Context(), id, *req.Enabled); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Heartbeat godoc
//
//	@Summary		Record a heartbeat
//	@Description	Records a liveness heartbeat for a monitor. Stale heartbeats get flagged offline by the health cron.
//	@Tags			Monitors
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"Monitor ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/monitors/{id}/heartbeat [post]
func (h *Monitor) Heartbeat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Heartbeat(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	// A live heartbeat clears any offline incident the health cron opened.
	if _, err := h.incidents.AutoResolve(r.Context(), "monitor_offline:"+id, "monitor heartbeat restored"); err != nil {
		response.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
