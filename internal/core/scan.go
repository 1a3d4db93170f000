package core

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/llm"
	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/netguard"
	"github.com/edlund/sentinel/internal/platform"
)

// maxBodySample caps how much response body is fed to the analyst.
const maxBodySample = 16 * 1024

type ScanService struct {
	db      DB
	analyst *llm.Analyst
	client  *http.Client
	logger  zerolog.Logger
}

func NewScanService(db DB, analyst *llm.Analyst, logger zerolog.Logger) *ScanService {
	return &ScanService{
		db:      db,
		analyst: analyst,
		client:  netguard.NewHTTPClient(30 * time.Second),
		logger:  logger.With().Str("component", "scan").Logger(),
	}
}

// ScanWebsite validates the URL, fetches it through the guarded client, and
// persists the analyst's verdict.
func (s *ScanService) ScanWebsite(ctx context.Context, rawURL, requestedBy string) (*model.ScanResult, error) {
	start := time.Now()

	u, err := netguard.ValidateTarget(rawURL)
	if err != nil {
		return s.saveRejected(ctx, model.ScanWebsite, rawURL, requestedBy, err, start)
	}

	evidence := s.fetchEvidence(ctx, u.String())
	verdict, live := s.analyst.Analyze(ctx, model.ScanWebsite, u.String(), evidence)
	return s.saveVerdict(ctx, model.ScanWebsite, u.String(), requestedBy, verdict, live, start)
}

// ScanAPI behaves like ScanWebsite but analyzes the target as an API endpoint.
func (s *ScanService) ScanAPI(ctx context.Context, rawURL, requestedBy string) (*model.ScanResult, error) {
	start := time.Now()

	u, err := netguard.ValidateTarget(rawURL)
	if err != nil {
		return s.saveRejected(ctx, model.ScanAPI, rawURL, requestedBy, err, start)
	}

	evidence := s.fetchEvidence(ctx, u.String())
	verdict, live := s.analyst.Analyze(ctx, model.ScanAPI, u.String(), evidence)
	return s.saveVerdict(ctx, model.ScanAPI, u.String(), requestedBy, verdict, live, start)
}

// AnalyzeQR decodes a base64 QR payload and analyzes it. URL payloads go
// through the same SSRF guard as direct scans.
func (s *ScanService) AnalyzeQR(ctx context.Context, payloadB64, requestedBy string) (*model.ScanResult, error) {
	start := time.Now()

	raw, err := base64.StdEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("invalid QR payload: %w", err)
	}
	payload := strings.TrimSpace(string(raw))
	if payload == "" {
		return nil, fmt.Errorf("empty QR payload")
	}

	target := payload
	evidence := "Decoded QR payload:\n" + payload

	if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
		u, err := netguard.ValidateTarget(payload)
		if err != nil {
			return s.saveRejected(ctx, model.ScanQR, payload, requestedBy, err, start)
		}
		target = u.String()
		evidence += "\n\nFetched target:\n" + s.fetchEvidence(ctx, target)
	}

	verdict, live := s.analyst.Analyze(ctx, model.ScanQR, target, evidence)
	return s.saveVerdict(ctx, model.ScanQR, target, requestedBy, verdict, live, start)
}

// ScanStatic analyzes pasted configuration or source text. No outbound fetch.
func (s *ScanService) ScanStatic(ctx context.Context, name, content, requestedBy string) (*model.ScanResult, error) {
	start := time.Now()

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content")
	}
	if len(content) > maxBodySample {
		content = content[:maxBodySample]
	}

	verdict, live := s.analyst.Analyze(ctx, model.ScanStatic, name, content)
	return s.saveVerdict(ctx, model.ScanStatic, name, requestedBy, verdict, live, start)
}

// MultiAgentAnalysis runs the three-agent pass over a validated URL.
func (s *ScanService) MultiAgentAnalysis(ctx context.Context, rawURL, requestedBy string) (*model.ScanResult, error) {
	start := time.Now()

	u, err := netguard.ValidateTarget(rawURL)
	if err != nil {
		return s.saveRejected(ctx, model.ScanMultiAgent, rawURL, requestedBy, err, start)
	}

	evidence := s.fetchEvidence(ctx, u.String())
	verdict, live := s.analyst.MultiAgentAnalyze(ctx, u.String(), evidence)
	return s.saveVerdict(ctx, model.ScanMultiAgent, u.String(), requestedBy, verdict, live, start)
}

// GetByID returns a scan result by ID.
func (s *ScanService) GetByID(ctx context.Context, id string) (*model.ScanResult, error) {
	var r model.ScanResult
	err := s.db.QueryRow(ctx,
		`SELECT id, scan_type, target, status, risk_score, severity, summary, findings,
		        recommendations, requested_by, duration_ms, created_at
		 FROM scan_results WHERE id = $1`, id,
	).Scan(&r.ID, &r.ScanType, &r.Target, &r.Status, &r.RiskScore, &r.Severity, &r.Summary,
		&r.Findings, &r.Recommendations, &r.RequestedBy, &r.DurationMS, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get scan result: %w", err)
	}
	return &r, nil
}

// ScanFilters holds optional filters for listing scan results.
type ScanFilters struct {
	ScanType string
	Status   string
	Severity string
}

// List returns scan results with optional filters, paginated.
func (s *ScanService) List(ctx context.Context, filters ScanFilters, limit int, cursor string) ([]model.ScanResult, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, scan_type, target, status, risk_score, severity, summary, findings,
	                 recommendations, requested_by, duration_ms, created_at
	           FROM scan_results`

	var conditions []string
	var args []any
	argN := 1

	if filters.ScanType != "" {
		conditions = append(conditions, fmt.Sprintf("scan_type = $%d", argN))
		args = append(args, filters.ScanType)
		argN++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}
	if filters.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argN))
		args = append(args, filters.Severity)
		argN++
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM scan_results WHERE id = $%d)", argN))
		args = append(args, cursor)
		argN++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argN)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list scan results: %w", err)
	}
	defer rows.Close()

	var results []model.ScanResult
	for rows.Next() {
		var r model.ScanResult
		if err := rows.Scan(&r.ID, &r.ScanType, &r.Target, &r.Status, &r.RiskScore, &r.Severity,
			&r.Summary, &r.Findings, &r.Recommendations, &r.RequestedBy, &r.DurationMS,
			&r.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, r)
	}

	hasMore := len(results) > limit
	if hasMore {
		results = results[:limit]
	}
	return results, hasMore, nil
}

// fetchEvidence GETs the target through the guarded client and summarizes
// status, headers, and a body sample. Fetch failures become evidence rather
// than errors: an unreachable target is itself a finding.
func (s *ScanService) fetchEvidence(ctx context.Context, target string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Request could not be constructed: %v", err)
	}
	req.Header.Set("User-Agent", "sentinel-scanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Target could not be fetched: %v", err)
	}
	defer resp.Body.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP status: %s\n", resp.Status)
	for _, h := range []string{"Server", "Content-Type", "Strict-Transport-Security",
		"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Location"} {
		if v := resp.Header.Get(h); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySample))
	if len(body) > 0 {
		b.WriteString("\nBody sample:\n")
		b.Write(body)
	}
	return b.String()
}

func (s *ScanService) saveVerdict(ctx context.Context, scanType, target, requestedBy string, verdict *llm.Verdict, live bool, start time.Time) (*model.ScanResult, error) {
	status := model.ScanCompleted
	if !live {
		status = model.ScanDegraded
	}

	findings, _ := json.Marshal(verdict.Findings)
	recommendations, _ := json.Marshal(verdict.Recommendations)

	result := &model.ScanResult{
		ID:              platform.NewName("scan"),
		ScanType:        scanType,
		Target:          target,
		Status:          status,
		RiskScore:       verdict.RiskScore,
		Severity:        verdict.Severity,
		Summary:         verdict.Summary,
		Findings:        findings,
		Recommendations: recommendations,
		RequestedBy:     requestedBy,
		DurationMS:      time.Since(start).Milliseconds(),
		CreatedAt:       time.Now(),
	}

	if err := s.insert(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// saveRejected records an SSRF-rejected scan so the attempt is visible in the
// result history, then surfaces the validation error to the caller.
func (s *ScanService) saveRejected(ctx context.Context, scanType, target, requestedBy string, cause error, start time.Time) (*model.ScanResult, error) {
	findings, _ := json.Marshal([]string{cause.Error()})

	result := &model.ScanResult{
		ID:          platform.NewName("scan"),
		ScanType:    scanType,
		Target:      target,
		Status:      model.ScanRejected,
		RiskScore:   0,
		Severity:    model.SeverityLow,
		Summary:     "Target rejected by SSRF guard.",
		Findings:    findings,
		RequestedBy: requestedBy,
		DurationMS:  time.Since(start).Milliseconds(),
		CreatedAt:   time.Now(),
	}

	if err := s.insert(ctx, result); err != nil {
		s.logger.Error().Err(err).Str("target", target).Msg("failed to record rejected scan")
	}
	return result, fmt.Errorf("target rejected: %w", cause)
}

func (s *ScanService) insert(ctx context.Context, r *model.ScanResult) error {
	if r.Findings == nil {
		r.Findings = []byte("[]")
	}
	if r.Recommendations == nil {
		r.Recommendations = []byte("[]")
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO scan_results (id, scan_type, target, status, risk_score, severity, summary,
		                           findings, recommendations, requested_by, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.ScanType, r.Target, r.Status, r.RiskScore, r.Severity, r.Summary,
		r.Findings, r.Recommendations, r.RequestedBy, r.DurationMS, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan result: %w", err)
	}
	return nil
}
