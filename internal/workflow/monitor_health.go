package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edlund/sentinel/internal/activity"
	"github.com/edlund/sentinel/internal/core"
)

// MonitorHealthWorkflow runs on a cron schedule, flags running monitors with
// overdue heartbeats as offline, and opens an incident per offline monitor.
func MonitorHealthWorkflow(ctx workflow.Context, staleAfterMinutes int) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var stale []core.StaleMonitor
	if err := workflow.ExecuteActivity(ctx, "MarkStaleMonitorsOffline", staleAfterMinutes).Get(ctx, &stale); err != nil {
		return err
	}

	for _, m := range stale {
		var result activity.CreateIncidentResult
		err := workflow.ExecuteActivity(ctx, "CreateIncident", activity.CreateIncidentParams{
			DedupeKey: "monitor_offline:" + m.ID,
			Type:      "monitor_offline",
			Severity:  "high",
			Title:     fmt.Sprintf("Monitor %s went offline", m.Name),
			Detail:    fmt.Sprintf("Monitor %s (%s, kind: %s) missed its heartbeat for over %d minutes and was marked offline.", m.Name, m.ID, m.Kind, staleAfterMinutes),
			Source:    "monitor-health-cron",
		}).Get(ctx, &result)
		if err != nil {
			logger.Warn("failed to create offline-monitor incident", "monitor", m.ID, "error", err)
			continue
		}
		if result.Created {
			logger.Info("opened incident for offline monitor", "monitor", m.ID, "incident", result.ID)
		}
	}

	return nil
}
