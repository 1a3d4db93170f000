package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/core"
)

type Scan struct {
	svc *core.ScanService
}

func NewScan(svc *core.ScanService) *Scan {
	return &Scan{svc: svc}
}

// Website godoc
//
//	@Summary		Scan a website
//	@Description	Fetches the target URL through the egress guard and analyzes the page for phishing and malware signals. Private, loopback, and metadata addresses are rejected.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			body	body		request.ScanURL	true	"Target URL"
//	@Success		200		{object}	model.ScanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/scan/website [post]
func (h *Scan) Website(w http.ResponseWriter, r *http.Request) {
	var req request.ScanURL
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.ScanWebsite(r.Context(), req.URL, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// API godoc
//
//	@Summary		Scan an API endpoint
//	@Description	Probes the target API endpoint through the egress guard and analyzes headers and response shape for exposure signals.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			body	body		request.ScanURL	true	"Target URL"
//	@Success		200		{object}	model.ScanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/scan/api [post]
func (h *Scan) API(w http.ResponseWriter, r *http.Request) {
	var req request.ScanURL
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.ScanAPI(r.Context(), req.URL, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// QR godoc
//
//	@Summary		Analyze QR content
//	@Description	Analyzes base64-encoded decoded QR payload. URL payloads go through the same egress guard as website scans.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			body	body		request.AnalyzeQR	true	"Base64 payload"
//	@Success		200		{object}	model.ScanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/scan/qr [post]
func (h *Scan) QR(w http.ResponseWriter, r *http.Request) {
	var req request.AnalyzeQR
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.AnalyzeQR(r.Context(), req.Payload, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// Static godoc
//
//	@Summary		Analyze static content
//	@Description	Analyzes pasted source, config, or script content without fetching anything.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			body	body		request.ScanStatic	true	"Content to analyze"
//	@Success		200		{object}	model.ScanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/scan/static [post]
func (h *Scan) Static(w http.ResponseWriter, r *http.Request) {
	var req request.ScanStatic
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.ScanStatic(r.Context(), req.Name, req.Content, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// MultiAgent godoc
//
//	@Summary		Multi-agent URL analysis
//	@Description	Runs the deep multi-pass analysis: separate reputation, content, and technical passes merged into one verdict. Slower and costlier than a plain website scan.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			body	body		request.ScanURL	true	"Target URL"
//	@Success		200		{object}	model.ScanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/scan/multi-agent [post]
func (h *Scan) MultiAgent(w http.ResponseWriter, r *http.Request) {
	var req request.ScanURL
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.MultiAgentAnalysis(r.Context(), req.URL, actorFromRequest(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// Get godoc
//
//	@Summary		Get a scan result
//	@Description	Returns a stored scan result by ID.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"Scan result ID"
//	@Success		200	{object}	model.ScanResult
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/scan-results/{id} [get]
func (h *Scan) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, result)
}

// List godoc
//
//	@Summary		List scan results
//	@Description	Returns a paginated list of stored scan results.
//	@Tags			Scans
//	@Security		ApiKeyAuth
//	@Param			scan_type	query		string	false	"Filter by scan type"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			severity	query		string	false	"Filter by severity"
//	@Param			limit		query		int		false	"Page size"			default(50)
//	@Param			cursor		query		string	false	"Pagination cursor"
//	@Success		200			{object}	response.PaginatedResponse{items=[]model.ScanResult}
//	@Failure		500			{object}	response.ErrorResponse
//	@Router			/scan-results [get]
func (h *Scan) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := request.ParsePagination(r)

	filters := core.ScanFilters{
		ScanType: q.Get("scan_type"),
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
	}

	results, hasMore, err := h.svc.List(r.Context(), filters, p.Limit, p.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(results) > 0 {
		nextCursor = results[len(results)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, results, nextCursor, hasMore)
}
