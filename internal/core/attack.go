package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

type AttackService struct {
	db DB
}

func NewAttackService(db DB) *AttackService {
	return &AttackService{db: db}
}

// Record inserts a live attack observation. The insert trigger notifies the
// security_events channel, which feeds the stream hub and the auto-blocker.
func (s *AttackService) Record(ctx context.Context, a *model.LiveAttack) error {
	a.ID = platform.NewName("atk")
	now := time.Now()
	if a.DetectedAt.IsZero() {
		a.DetectedAt = now
	}
	a.CreatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO live_attacks (id, attack_type, severity, source_ip, source_country,
		                           source_lat, source_lon, target, protocol, blocked, detected_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.AttackType, a.Severity, a.SourceIP, a.SourceCountry,
		a.SourceLat, a.SourceLon, a.Target, a.Protocol, a.Blocked, a.DetectedAt, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record attack: %w", err)
	}
	return nil
}

// AttackFilters holds optional filters for listing live attacks.
type AttackFilters struct {
	Severity string
	Type     string
	SourceIP string
	Blocked  *bool
	Since    *time.Time
}

// List returns live attacks with optional filters, paginated, newest first.
func (s *AttackService) List(ctx context.Context, filters AttackFilters, limit int, cursor string) ([]model.LiveAttack, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, attack_type, severity, source_ip, source_country, source_lat, source_lon,
	                 target, protocol, blocked, detected_at, created_at
	           FROM live_attacks`

	var conditions []string
	var args []any
	argN := 1

	if filters.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argN))
		args = append(args, filters.Severity)
		argN++
	}
	if filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("attack_type = $%d", argN))
		args = append(args, filters.Type)
		argN++
	}
	if filters.SourceIP != "" {
		conditions = append(conditions, fmt.Sprintf("source_ip = $%d", argN))
		args = append(args, filters.SourceIP)
		argN++
	}
	if filters.Blocked != nil {
		conditions = append(conditions, fmt.Sprintf("blocked = $%d", argN))
		args = append(args, *filters.Blocked)
		argN++
	}
	if filters.Since != nil {
		conditions = append(conditions, fmt.Sprintf("detected_at >= $%d", argN))
		args = append(args, *filters.Since)
		argN++
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM live_attacks WHERE id = $%d)", argN))
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
		return nil, false, fmt.Errorf("list attacks: %w", err)
	}
	defer rows.Close()

	var attacks []model.LiveAttack
	for rows.Next() {
		var a model.LiveAttack
		if err := rows.Scan(&a.ID, &a.AttackType, &a.Severity, &a.SourceIP, &a.SourceCountry,
			&a.SourceLat, &a.SourceLon, &a.Target, &a.Protocol, &a.Blocked,
			&a.DetectedAt, &a.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan attack: %w", err)
		}
		attacks = append(attacks, a)
	}

	hasMore := len(attacks) > limit
	if hasMore {
		attacks = attacks[:limit]
	}
	return attacks, hasMore, nil
}

// GetByID returns a live attack by ID.
func (s *AttackService) GetByID(ctx context.Context, id string) (*model.LiveAttack, error) {
	var a model.LiveAttack
	err := s.db.QueryRow(ctx,
		`SELECT id, attack_type, severity, source_ip, source_country, source_lat, source_lon,
		        target, protocol, blocked, detected_at, created_at
		 FROM live_attacks WHERE id = $1`, id,
	).Scan(&a.ID, &a.AttackType, &a.Severity, &a.SourceIP, &a.SourceCountry,
		&a.SourceLat, &a.SourceLon, &a.Target, &a.Protocol, &a.Blocked,
		&a.DetectedAt, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get attack: %w", err)
	}
	return &a, nil
}

// MarkBlocked flags an attack as blocked and records the blocked_attacks row.
func (s *AttackService) MarkBlocked(ctx context.Context, attackID, entityID, sourceIP, reason, blockedBy string) error {
	now := time.Now()

	if attackID != "" {
		_, err := s.db.Exec(ctx, `UPDATE live_attacks SET blocked = true WHERE id = $1`, attackID)
		if err != nil {
			return fmt.Errorf("mark attack blocked: %w", err)
		}
	}

	var attackRef, entityRef *string
	if attackID != "" {
		attackRef = &attackID
	}
	if entityID != "" {
		entityRef = &entityID
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO blocked_attacks (id, attack_id, entity_id, source_ip, reason, blocked_by, blocked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		platform.NewID(), attackRef, entityRef, sourceIP, reason, blockedBy, now,
	)
	if err != nil {
		return fmt.Errorf("record blocked attack: %w", err)
	}
	return nil
}

// ListBlocked returns blocked attacks, paginated, newest first.
func (s *AttackService) ListBlocked(ctx context.Context, limit int, cursor string) ([]model.BlockedAttack, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, attack_id, entity_id, source_ip, reason, blocked_by, blocked_at
	           FROM blocked_attacks`
	var args []any
	if cursor != "" {
		query += ` WHERE blocked_at < (SELECT blocked_at FROM blocked_attacks WHERE id = $1)
		           ORDER BY blocked_at DESC LIMIT $2`
		args = []any{cursor, limit + 1}
	} else {
		query += ` ORDER BY blocked_at DESC LIMIT $1`
		args = []any{limit + 1}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list blocked attacks: %w", err)
	}
	defer rows.Close()

	var blocked []model.BlockedAttack
	for rows.Next() {
		var b model.BlockedAttack
		if err := rows.Scan(&b.ID, &b.AttackID, &b.EntityID, &b.SourceIP, &b.Reason,
			&b.BlockedBy, &b.BlockedAt); err != nil {
			return nil, false, fmt.Errorf("scan blocked attack: %w", err)
		}
		blocked = append(blocked, b)
	}

	hasMore := len(blocked) > limit
	if hasMore {
		blocked = blocked[:limit]
	}
	return blocked, hasMore, nil
}

// PurgeOlderThan deletes live attacks older than the cutoff. Returns the
// number of rows removed. Used by the retention workflow after archival.
func (s *AttackService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM live_attacks WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge attacks: %w", err)
	}
	return tag.RowsAffected(), nil
}
