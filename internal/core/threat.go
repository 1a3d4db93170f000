package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

type ThreatService struct {
	db DB
}

func NewThreatService(db DB) *ThreatService {
	return &ThreatService{db: db}
}

// Create inserts a new threat. Score defaults from severity when unset.
func (s *ThreatService) Create(ctx context.Context, t *model.Threat) error {
	t.ID = platform.NewName("thr")
	now := time.Now()
	if t.Status == "" {
		t.Status = model.ThreatActive
	}
	if t.Score == 0 {
		t.Score = defaultScore(t.Severity)
	}
	if t.Metadata == nil {
		t.Metadata = []byte("{}")
	}
	if t.FirstSeenAt.IsZero() {
		t.FirstSeenAt = now
	}
	t.LastSeenAt = now
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO threats (id, type, severity, status, score, title, description, indicator,
		                      indicator_kind, source_feed, source_ip, country_code, latitude, longitude,
		                      metadata, first_seen_at, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.Type, t.Severity, t.Status, t.Score, t.Title, t.Description, t.Indicator,
		t.IndicatorKind, t.SourceFeed, t.SourceIP, t.CountryCode, t.Latitude, t.Longitude,
		t.Metadata, t.FirstSeenAt, t.LastSeenAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create threat: %w", err)
	}
	return nil
}

// Upsert inserts a threat keyed on its indicator, bumping last_seen_at and
// score on conflict. Used by the feed ingest worker.
func (s *ThreatService) Upsert(ctx context.Context, t *model.Threat) error {
	now := time.Now()
	if t.Status == "" {
		t.Status = model.ThreatActive
	}
	if t.Score == 0 {
		t.Score = defaultScore(t.Severity)
	}
	if t.Metadata == nil {
		t.Metadata = []byte("{}")
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO threats (id, type, severity, status, score, title, description, indicator,
		                      indicator_kind, source_feed, source_ip, country_code, latitude, longitude,
		                      metadata, first_seen_at, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16, $16, $16)
		 ON CONFLICT (indicator) DO UPDATE
		 SET severity = EXCLUDED.severity, score = EXCLUDED.score,
		     last_seen_at = EXCLUDED.last_seen_at, updated_at = EXCLUDED.updated_at,
		     status = CASE WHEN threats.status = 'archived' THEN 'active' ELSE threats.status END`,
		platform.NewName("thr"), t.Type, t.Severity, t.Status, t.Score, t.Title, t.Description,
		t.Indicator, t.IndicatorKind, t.SourceFeed, t.SourceIP, t.CountryCode, t.Latitude,
		t.Longitude, t.Metadata, now,
	)
	if err != nil {
		return fmt.Errorf("upsert threat: %w", err)
	}
	return nil
}

// GetByID returns a threat by ID.
func (s *ThreatService) GetByID(ctx context.Context, id string) (*model.Threat, error) {
	var t model.Threat
	err := s.db.QueryRow(ctx, threatSelect+` WHERE id = $1`, id).Scan(threatFields(&t)...)
	if err != nil {
		return nil, fmt.Errorf("get threat: %w", err)
	}
	return &t, nil
}

// ThreatFilters holds optional filters for listing threats.
type ThreatFilters struct {
	Severity string
	Status   string
	Type     string
	Feed     string
	Search   string
}

// List returns threats with optional filters, paginated.
func (s *ThreatService) List(ctx context.Context, filters ThreatFilters, limit int, cursor string) ([]model.Threat, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := threatSelect
	var conditions []string
	var args []any
	argN := 1

	if filters.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argN))
		args = append(args, filters.Severity)
		argN++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}
	if filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argN))
		args = append(args, filters.Type)
		argN++
	}
	if filters.Feed != "" {
		conditions = append(conditions, fmt.Sprintf("source_feed = $%d", argN))
		args = append(args, filters.Feed)
		argN++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR indicator ILIKE $%d)", argN, argN+1))
		args = append(args, "%"+filters.Search+"%", "%"+filters.Search+"%")
		argN += 2
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM threats WHERE id = $%d)", argN))
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
		return nil, false, fmt.Errorf("list threats: %w", err)
	}
	defer rows.Close()

	var threats []model.Threat
	for rows.Next() {
		var t model.Threat
		if err := rows.Scan(threatFields(&t)...); err != nil {
			return nil, false, fmt.Errorf("scan threat: %w", err)
		}
		threats = append(threats, t)
	}

	hasMore := len(threats) > limit
	if hasMore {
		threats = threats[:limit]
	}
	return threats, hasMore, nil
}

// UpdateStatus transitions a threat between active/mitigated/archived.
func (s *ThreatService) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE threats SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update threat status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("threat %s not found", id)
	}
	return nil
}

// Delete removes a threat.
func (s *ThreatService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM threats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete threat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("threat %s not found", id)
	}
	return nil
}

const threatSelect = `SELECT id, type, severity, status, score, title, description, indicator,
       indicator_kind, source_feed, source_ip, country_code, latitude, longitude,
       metadata, first_seen_at, last_seen_at, created_at, updated_at
 FROM threats`

func threatFields(t *model.Threat) []any {
	return []any{&t.ID, &t.Type, &t.Severity, &t.Status, &t.Score, &t.Title, &t.Description,
		&t.Indicator, &t.IndicatorKind, &t.SourceFeed, &t.SourceIP, &t.CountryCode,
		&t.Latitude, &t.Longitude, &t.Metadata, &t.FirstSeenAt, &t.LastSeenAt,
		&t.CreatedAt, &t.UpdatedAt}
}

func defaultScore(severity string) int {
	switch severity {
	case model.SeverityCritical:
		return 90
	case model.SeverityHigh:
		return 70
	case model.SeverityMedium:
		return 40
	default:
		return 10
	}
}
