package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/model"
)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SecurityDB contains activities that read from and update the security database.
type SecurityDB struct {
	db        DB
	threats   *core.ThreatService
	incidents *core.IncidentService
	monitors  *core.MonitorService
	attacks   *core.AttackService
}

// NewSecurityDB creates a new SecurityDB activity struct.
func NewSecurityDB(db DB) *SecurityDB {
	return &SecurityDB{
		db:        db,
		threats:   core.NewThreatService(db),
		incidents: core.NewIncidentService(db),
		monitors:  core.NewMonitorService(db),
		attacks:   core.NewAttackService(db),
	}
}

// StaleIncident is an incident overdue for attention.
type StaleIncident struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// FindStaleIncidents returns incidents that have sat unhandled too long:
// critical open and unassigned for over 15 minutes, high for over an hour,
// anything investigating for over 30 minutes.
func (a *SecurityDB) FindStaleIncidents(ctx context.Context) ([]StaleIncident, error) {
	rows, err := a.db.Query(ctx,
		`SELECT id, severity, title, status, assigned_to, created_at FROM incidents
		 WHERE (status = 'open' AND assigned_to IS NULL AND
		        ((severity = 'critical' AND created_at < now() - interval '15 minutes') OR
		         (severity = 'high' AND created_at < now() - interval '1 hour')))
		    OR (status = 'investigating' AND updated_at < now() - interval '30 minutes')`,
	)
	if err != nil {
		return nil, fmt.Errorf("find stale incidents: %w", err)
	}
	defer rows.Close()

	var stale []StaleIncident
	for rows.Next() {
		var (
			inc        StaleIncident
			status     string
			assignedTo *string
			createdAt  time.Time
		)
		if err := rows.Scan(&inc.ID, &inc.Severity, &inc.Title, &status, &assignedTo, &createdAt); err != nil {
			return nil, fmt.Errorf("scan stale incident: %w", err)
		}
		switch status {
		case model.IncidentInvestigating:
			inc.Reason = "investigation stalled for over 30 minutes"
		default:
			inc.Reason = fmt.Sprintf("%s incident unassigned since %s", inc.Severity, createdAt.UTC().Format(time.RFC3339))
		}
		stale = append(stale, inc)
	}
	return stale, rows.Err()
}

// EscalateIncidentParams holds the parameters for EscalateIncident.
type EscalateIncidentParams struct {
	IncidentID string `json:"incident_id"`
	Reason     string `json:"reason"`
	Actor      string `json:"actor"`
}

// EscalateIncident marks an incident escalated and records a timeline event.
func (a *SecurityDB) EscalateIncident(ctx context.Context, params EscalateIncidentParams) error {
	return a.incidents.Escalate(ctx, params.IncidentID, params.Reason, params.Actor)
}

// CreateIncidentParams holds the parameters for CreateIncident.
type CreateIncidentParams struct {
	DedupeKey string  `json:"dedupe_key"`
	Type      string  `json:"type"`
	Severity  string  `json:"severity"`
	Title     string  `json:"title"`
	Detail    string  `json:"detail"`
	ThreatID  *string `json:"threat_id,omitempty"`
	Source    string  `json:"source"`
}

// CreateIncidentResult is the result of CreateIncident.
type CreateIncidentResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// CreateIncident creates an incident, deduplicating on dedupe_key.
func (a *SecurityDB) CreateIncident(ctx context.Context, params CreateIncidentParams) (*CreateIncidentResult, error) {
	inc := &model.Incident{
		DedupeKey: params.DedupeKey,
		Type:      params.Type,
		Severity:  params.Severity,
		Title:     params.Title,
		Detail:    params.Detail,
		ThreatID:  params.ThreatID,
		Source:    params.Source,
	}
	created, err := a.incidents.Create(ctx, inc)
	if err != nil {
		return nil, err
	}
	return &CreateIncidentResult{ID: inc.ID, Created: created}, nil
}

// MarkStaleMonitorsOffline flags running monitors whose heartbeat is older
// than staleAfterMinutes and returns them.
func (a *SecurityDB) MarkStaleMonitorsOffline(ctx context.Context, staleAfterMinutes int) ([]core.StaleMonitor, error) {
	cutoff := time.Now().Add(-time.Duration(staleAfterMinutes) * time.Minute)
	return a.monitors.MarkStaleOffline(ctx, cutoff)
}

// HeartbeatRunningMonitors bumps last_heartbeat on all running monitors of
// the given kind. Used by the crons that embody those monitors.
func (a *SecurityDB) HeartbeatRunningMonitors(ctx context.Context, kind string) (int64, error) {
	tag, err := a.db.Exec(ctx,
		`UPDATE monitors SET last_heartbeat = now(), updated_at = now()
		 WHERE kind = $1 AND status = 'running'`, kind,
	)
	if err != nil {
		return 0, fmt.Errorf("heartbeat monitors: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeOldAttacks deletes live attack rows older than retentionDays.
func (a *SecurityDB) PurgeOldAttacks(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return a.attacks.PurgeOlderThan(ctx, cutoff)
}

// DeleteOldAuditLogs deletes audit log entries older than retentionDays.
func (a *SecurityDB) DeleteOldAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := a.db.Exec(ctx,
		`DELETE FROM audit_logs WHERE created_at < now() - ($1 || ' days')::interval`,
		fmt.Sprint(retentionDays),
	)
	if err != nil {
		return 0, fmt.Errorf("delete old audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
