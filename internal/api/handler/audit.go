package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edlund/sentinel/internal/api/request"
	"github.com/edlund/sentinel/internal/api/response"
)

// AuditLog represents an audit log entry.
type AuditLog struct {
	ID           string          `json:"id"`
	APIKeyID     *string         `json:"api_key_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	ResourceType *string         `json:"resource_type,omitempty"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	StatusCode   int             `json:"status_code"`
	RequestBody  json.RawMessage `json:"request_body,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Audit struct {
	pool *pgxpool.Pool
}

func NewAudit(pool *pgxpool.Pool) *Audit {
	return &Audit{pool: pool}
}

// List godoc
//
//	@Summary		List audit logs
//	@Description	Returns a paginated list of audit log entries. Supports filtering by resource_type, HTTP method (action), and date range (date_from/date_to).
//	@Tags			Audit Logs
//	@Security		ApiKeyAuth
//	@Param			resource_type	query		string	false	"Filter by resource type"
//	@Param			action			query		string	false	"Filter by HTTP method"
//	@Param			date_from		query		string	false	"Filter by start date"
//	@Param			date_to			query		string	false	"Filter by end date"
//	@Param			limit			query		int		false	"Page size"			default(50)
//	@Param			cursor			query		string	false	"Pagination cursor"
//	@Success		200				{object}	response.PaginatedResponse{items=[]handler.AuditLog}
//	@Failure		500				{object}	response.ErrorResponse
//	@Router			/audit-logs [get]
func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := request.ParsePagination(r)

	query := `SELECT id, api_key_id, method, path, resource_type, resource_id, status_code, request_body, created_at
              FROM audit_logs WHERE 1=1`
	args := []any{}
	argIdx := 1

	if resourceType := q.Get("resource_type"); resourceType != "" {
		query += fmt.Sprintf(` AND resource_type = $%d`, argIdx)
		args = append(args, resourceType)
		argIdx++
	}
	if action := q.Get("action"); action != "" {
		query += fmt.Sprintf(` AND method = $%d`, argIdx)
		args = append(args, action)
		argIdx++
	}
	if dateFrom := q.Get("date_from"); dateFrom != "" {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, dateFrom)
		argIdx++
	}
	if dateTo := q.Get("date_to"); dateTo != "" {
		query += fmt.Sprintf(` AND created_at <= $%d`, argIdx)
		args = append(args, dateTo)
		argIdx++
	}
	if p.Cursor != "" {
		query += fmt.Sprintf(` AND created_at < (SELECT created_at FROM audit_logs WHERE id = $%d)`, argIdx)
		args = append(args, p.Cursor)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, p.Limit+1)

	rows, err := h.pool.Query(r.Context(), query, args...)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.APIKeyID, &l.Method, &l.Path, &l.ResourceType, &l.ResourceID, &l.StatusCode, &l.RequestBody, &l.CreatedAt); err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logs = append(logs, l)
	}

	hasMore := len(logs) > p.Limit
	if hasMore {
		logs = logs[:p.Limit]
	}
	var nextCursor string
	if hasMore && len(logs) > 0 {
		nextCursor = logs[len(logs)-1].ID
	}

	response.WritePaginated(w, http.StatusOK, logs, nextCursor, hasMore)
}
