package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

type MonitorService struct {
	db DB
}

func NewMonitorService(db DB) *MonitorService {
	return &MonitorService{db: db}
}

// Create registers a monitoring unit.
func (s *MonitorService) Create(ctx context.Context, m *model.Monitor) error {
	m.ID = platform.NewName("mon")
	now := time.Now()
	if m.Status == "" {
		m.Status = model.MonitorStopped
	}
	if m.Config == nil {
		m.Config = []byte("{}")
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO monitors (id, name, kind, status, auto_block, config, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Name, m.Kind, m.Status, m.AutoBlock, m.Config, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}
	return nil
}

// GetByID returns a monitor by ID.
func (s *MonitorService) GetByID(ctx context.Context, id string) (*model.Monitor, error) {
	var m model.Monitor
	err := s.db.QueryRow(ctx,
		`SELECT id, name, kind, status, auto_block, config, last_heartbeat, created_at, updated_at
		 FROM monitors WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Kind, &m.Status, &m.AutoBlock, &m.Config,
		&m.LastHeartbeat, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	return &m, nil
}

// List returns all monitors, newest first.
func (s *MonitorService) List(ctx context.Context) ([]model.Monitor, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, kind, status, auto_block, config, last_heartbeat, created_at, updated_at
		 FROM monitors ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var monitors []model.Monitor
	for rows.Next() {
		var m model.Monitor
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Status, &m.AutoBlock, &m.Config,
			&m.LastHeartbeat, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		monitors = append(monitors, m)
	}
	return monitors, rows.Err()
}

// Start transitions a monitor to running.
func (s *MonitorService) Start(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.MonitorRunning)
}

// Stop transitions a monitor to stopped.
func (s *MonitorService) Stop(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.MonitorStopped)
}

func (s *MonitorService) setStatus(ctx context.Context, id, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE monitors SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set monitor status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor %s not found", id)
	}
	return nil
}

// SetAutoBlock flips the auto-block switch on a monitor.
func (s *MonitorService) SetAutoBlock(ctx context.Context, id string, enabled bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE monitors SET auto_block = $1, updated_at = $2 WHERE id = $3`,
		enabled, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set auto-block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor %s not found", id)
	}
	return nil
}

// Heartbeat records liveness for a running monitor.
func (s *MonitorService) Heartbeat(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE monitors SET last_heartbeat = now(), status = $1, updated_at = now() WHERE id = $2`,
		model.MonitorRunning, id,
	)
	if err != nil {
		return fmt.Errorf("monitor heartbeat: %w", err)
	}
	return nil
}

// AutoBlockEnabled reports whether any auto_block monitor is running with the
// switch on. The auto-blocker consults this before acting.
func (s *MonitorService) AutoBlockEnabled(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM monitors WHERE kind = $1 AND auto_block AND status = $2`,
		model.MonitorAutoBlock, model.MonitorRunning,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check auto-block: %w", err)
	}
	return n > 0, nil
}

// StaleMonitor describes a running monitor with an overdue heartbeat.
type StaleMonitor struct {
	ID   string
	Name string
	Kind string
}

// MarkStaleOffline flags running feed monitors whose heartbeat is older than
// the cutoff as offline and returns them. Used by the health cron. Only feed
// monitors heartbeat; the auto-block switch and the stream stay running
// without one and must never be swept offline.
func (s *MonitorService) MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]StaleMonitor, error) {
	rows, err := s.db.Query(ctx,
		`UPDATE monitors SET status = $1, updated_at = now()
		 WHERE kind = $2 AND status = $3 AND (last_heartbeat IS NULL OR last_heartbeat < $4)
		 RETURNING id, name, kind`,
		model.MonitorOffline, model.MonitorFeed, model.MonitorRunning, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("mark stale monitors: %w", err)
	}
	defer rows.Close()

	var stale []StaleMonitor
	for rows.Next() {
		var m StaleMonitor
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind); err != nil {
			return nil, fmt.Errorf("scan stale monitor: %w", err)
		}
		stale = append(stale, m)
	}
	return stale, rows.Err()
}
