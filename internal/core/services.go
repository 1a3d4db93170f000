package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/llm"
)

// DB is the subset of pgxpool.Pool the services need.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Services struct {
	Threat    *ThreatService
	Attack    *AttackService
	Block     *BlockService
	Scan      *ScanService
	Incident  *IncidentService
	Monitor   *MonitorService
	Profile   *ProfileService
	Dashboard *DashboardService
	APIKey    *APIKeyService
}

func NewServices(db DB, analyst *llm.Analyst, logger zerolog.Logger) *Services {
	block := NewBlockService(db)
	return &Services{
		Threat:    NewThreatService(db),
		Attack:    NewAttackService(db),
		Block:     block,
		Scan:      NewScanService(db, analyst, logger),
		Incident:  NewIncidentService(db),
		Monitor:   NewMonitorService(db),
		Profile:   NewProfileService(db),
		Dashboard: NewDashboardService(db),
		APIKey:    NewAPIKeyService(db),
	}
}
