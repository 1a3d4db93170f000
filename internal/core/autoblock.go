package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/model"
)

// AutoBlocker reacts to high and critical security events by blocking the
// source IP. It only acts while an auto_block monitor is running with the
// switch on; operators can pause it without redeploying.
type AutoBlocker struct {
	blocks   *BlockService
	attacks  *AttackService
	monitors *MonitorService
	logger   zerolog.Logger
}

func NewAutoBlocker(blocks *BlockService, attacks *AttackService, monitors *MonitorService, logger zerolog.Logger) *AutoBlocker {
	return &AutoBlocker{
		blocks:   blocks,
		attacks:  attacks,
		monitors: monitors,
		logger:   logger.With().Str("component", "autoblock").Logger(),
	}
}

// Handle processes one security event. Events below high severity, events
// without a source IP, and already-blocked sources are ignored.
func (b *AutoBlocker) Handle(ctx context.Context, ev model.SecurityEvent) error {
	if !model.SeverityAtLeast(ev.Severity, model.SeverityHigh) {
		return nil
	}
	if ev.SourceIP == "" {
		return nil
	}

	enabled, err := b.monitors.AutoBlockEnabled(ctx)
	if err != nil {
		return fmt.Errorf("auto-block gate: %w", err)
	}
	if !enabled {
		return nil
	}

	entity := &model.BlockedEntity{
		Kind:      model.EntityIP,
		Value:     ev.SourceIP,
		Reason:    fmt.Sprintf("auto-blocked: %s severity %s event %s", ev.Severity, ev.Kind, ev.ID),
		BlockedBy: "auto-blocker",
	}
	created, err := b.blocks.Block(ctx, entity)
	if err != nil {
		return fmt.Errorf("auto-block %s: %w", ev.SourceIP, err)
	}

	attackID := ""
	if ev.Kind == model.EventLiveAttack {
		attackID = ev.ID
	}
	if err := b.attacks.MarkBlocked(ctx, attackID, entity.ID, ev.SourceIP, entity.Reason, "auto-blocker"); err != nil {
		return fmt.Errorf("record auto-block: %w", err)
	}

	if created {
		b.logger.Info().
			Str("source_ip", ev.SourceIP).
			Str("severity", ev.Severity).
			Str("event_id", ev.ID).
			Msg("auto-blocked source")
	}
	return nil
}
