package handler

import (
	"net/http"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/export"
)

type Export struct {
	exporter *export.Exporter
}

func NewExport(exporter *export.Exporter) *Export {
	return &Export{exporter: exporter}
}

// Datasets godoc
//
//	@Summary		List exportable datasets
//	@Description	Returns the dataset names an export run can include.
//	@Tags			Export
//	@Security		ApiKeyAuth
//	@Success		200	{array}	string
//	@Router			/export/datasets [get]
func (h *Export) Datasets(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, export.Datasets())
}

// Run godoc
//
//	@Summary		Export datasets to object storage
//	@Description	Snapshots the requested datasets as NDJSON objects under a timestamped prefix in the configured bucket. An empty dataset list exports everything.
//	@Tags			Export
//	@Security		ApiKeyAuth
//	@Param			body	body		request.Export	true	"Datasets to export"
//	@Success		200		{object}	export.Result
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/export [post]
func (h *Export) Run(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		response.WriteError(w, http.StatusServiceUnavailable, "export storage is not configured")
		return
	}

	var req request.Export
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.exporter.Export(r.Context(), req.Datasets)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}
