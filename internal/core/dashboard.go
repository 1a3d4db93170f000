package core

import (
	"context"
	"fmt"
	"time"
)

// DashboardStats is the aggregate snapshot rendered on the overview page.
type DashboardStats struct {
	TotalThreats      int            `json:"total_threats"`
	ActiveThreats     int            `json:"active_threats"`
	ThreatsBySeverity map[string]int `json:"threats_by_severity"`
	AttacksLast24h    int            `json:"attacks_last_24h"`
	BlockedLast24h    int            `json:"blocked_last_24h"`
	OpenIncidents     int            `json:"open_incidents"`
	CriticalIncidents int            `json:"critical_incidents"`
	ActiveBlocks      int            `json:"active_blocks"`
	RunningMonitors   int            `json:"running_monitors"`
	ScansLast24h      int            `json:"scans_last_24h"`
	MTTRSeconds       *float64       `json:"mttr_seconds,omitempty"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

type DashboardService struct {
	db DB
}

func NewDashboardService(db DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats computes the dashboard snapshot. Each aggregate is a separate query;
// a dashboard refresh is not latency critical.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		ThreatsBySeverity: make(map[string]int),
		GeneratedAt:       time.Now(),
	}

	err := s.db.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE status = 'active') FROM threats`,
	).Scan(&stats.TotalThreats, &stats.ActiveThreats)
	if err != nil {
		return nil, fmt.Errorf("count threats: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT severity, count(*) FROM threats WHERE status = 'active' GROUP BY severity`,
	)
	if err != nil {
		return nil, fmt.Errorf("threats by severity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var n int
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		stats.ThreatsBySeverity[severity] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("threats by severity: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE blocked)
		 FROM live_attacks WHERE detected_at > now() - interval '24 hours'`,
	).Scan(&stats.AttacksLast24h, &stats.BlockedLast24h)
	if err != nil {
		return nil, fmt.Errorf("count attacks: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE status IN ('open', 'investigating')),
		        count(*) FILTER (WHERE severity = 'critical' AND status NOT IN ('resolved', 'cancelled'))
		 FROM incidents`,
	).Scan(&stats.OpenIncidents, &stats.CriticalIncidents)
	if err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT count(*) FROM blocked_entities
		 WHERE unblocked_at IS NULL AND (expires_at IS NULL OR expires_at > now())`,
	).Scan(&stats.ActiveBlocks)
	if err != nil {
		return nil, fmt.Errorf("count active blocks: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT count(*) FROM monitors WHERE status = 'running'`,
	).Scan(&stats.RunningMonitors)
	if err != nil {
		return nil, fmt.Errorf("count monitors: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT count(*) FROM scan_results WHERE created_at > now() - interval '24 hours'`,
	).Scan(&stats.ScansLast24h)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT extract(epoch FROM avg(resolved_at - created_at))
		 FROM incidents WHERE resolved_at IS NOT NULL`,
	).Scan(&stats.MTTRSeconds)
	if err != nil {
		return nil, fmt.Errorf("compute mttr: %w", err)
	}

	return stats, nil
}
