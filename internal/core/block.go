package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

type BlockService struct {
	db DB
}

func NewBlockService(db DB) *BlockService {
	return &BlockService{db: db}
}

const activeBlockSelect = `SELECT id, kind, value, reason, blocked_by, expires_at, unblocked_at, unblocked_by, created_at
	 FROM blocked_entities
	 WHERE value = $1 AND unblocked_at IS NULL AND (expires_at IS NULL OR expires_at > now())`

// Block creates a block-list entry, or returns the existing active one for
// the same value. Returns true if newly created. A partial unique index on
// active values backs the ON CONFLICT guard, so a manual block and the
// auto-blocker racing on the same value cannot both insert.
func (s *BlockService) Block(ctx context.Context, e *model.BlockedEntity) (bool, error) {
	existing, err := s.activeByValue(ctx, e.Value)
	if err == nil {
		*e = *existing
		return false, nil
	}

	// Retire blocks that expired without being unblocked so they do not
	// trip the active-value unique index.
	if _, err := s.db.Exec(ctx,
		`UPDATE blocked_entities SET unblocked_at = now(), unblocked_by = 'system:expired'
		 WHERE value = $1 AND unblocked_at IS NULL AND expires_at <= now()`,
		e.Value,
	); err != nil {
		return false, fmt.Errorf("retire expired blocks: %w", err)
	}

	e.ID = platform.NewName("blk")
	e.CreatedAt = time.Now()

	tag, err := s.db.Exec(ctx,
		`INSERT INTO blocked_entities (id, kind, value, reason, blocked_by, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (value) WHERE unblocked_at IS NULL DO NOTHING`,
		e.ID, e.Kind, e.Value, e.Reason, e.BlockedBy, e.ExpiresAt, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("block entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race with a concurrent block of the same value.
		winner, err := s.activeByValue(ctx, e.Value)
		if err != nil {
			return false, fmt.Errorf("load concurrent block for %s: %w", e.Value, err)
		}
		*e = *winner
		return false, nil
	}
	return true, nil
}

func (s *BlockService) activeByValue(ctx context.Context, value string) (*model.BlockedEntity, error) {
	var e model.BlockedEntity
	err := s.db.QueryRow(ctx, activeBlockSelect, value).Scan(
		&e.ID, &e.Kind, &e.Value, &e.Reason, &e.BlockedBy,
		&e.ExpiresAt, &e.UnblockedAt, &e.UnblockedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Unblock lifts an active block. The row is kept for the audit trail.
func (s *BlockService) Unblock(ctx context.Context, id, actor string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE blocked_entities SET unblocked_at = now(), unblocked_by = $1
		 WHERE id = $2 AND unblocked_at IS NULL`,
		actor, id,
	)
	if err != nil {
		return fmt.Errorf("unblock entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blocked entity %s not found or already unblocked", id)
	}
	return nil
}

// GetByID returns a block-list entry by ID.
func (s *BlockService) GetByID(ctx context.Context, id string) (*model.BlockedEntity, error) {
	var e model.BlockedEntity
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, value, reason, blocked_by, expires_at, unblocked_at, unblocked_by, created_at
		 FROM blocked_entities WHERE id = $1`, id,
	).Scan(&e.ID, &e.Kind, &e.Value, &e.Reason, &e.BlockedBy,
		&e.ExpiresAt, &e.UnblockedAt, &e.UnblockedBy, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get blocked entity: %w", err)
	}
	return &e, nil
}

// IsBlocked reports whether an active block exists for the value.
func (s *BlockService) IsBlocked(ctx context.Context, value string) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM blocked_entities
		 WHERE value = $1 AND unblocked_at IS NULL AND (expires_at IS NULL OR expires_at > now())`,
		value,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check blocked: %w", err)
	}
	return n > 0, nil
}

// BlockFilters holds optional filters for listing block-list entries.
type BlockFilters struct {
	Kind       string
	ActiveOnly bool
	Search     string
}

// List returns block-list entries with optional filters, paginated.
func (s *BlockService) List(ctx context.Context, filters BlockFilters, limit int, cursor string) ([]model.BlockedEntity, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, kind, value, reason, blocked_by, expires_at, unblocked_at, unblocked_by, created_at
	           FROM blocked_entities`

	var conditions []string
	var args []any
	argN := 1

	if filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argN))
		args = append(args, filters.Kind)
		argN++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "unblocked_at IS NULL AND (expires_at IS NULL OR expires_at > now())")
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("value ILIKE $%d", argN))
		args = append(args, "%"+filters.Search+"%")
		argN++
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM blocked_entities WHERE id = $%d)", argN))
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
		return nil, false, fmt.Errorf("list blocked entities: %w", err)
	}
	defer rows.Close()

	var entities []model.BlockedEntity
	for rows.Next() {
		var e model.BlockedEntity
		if err := rows.Scan(&e.ID, &e.Kind, &e.Value, &e.Reason, &e.BlockedBy,
			&e.ExpiresAt, &e.UnblockedAt, &e.UnblockedBy, &e.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan blocked entity: %w", err)
		}
		entities = append(entities, e)
	}

	hasMore := len(entities) > limit
	if hasMore {
		entities = entities[:limit]
	}
	return entities, hasMore, nil
}
