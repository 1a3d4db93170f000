package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edlund/sentinel/internal/activity"
)

// EscalateStaleIncidentsWorkflow runs on a cron schedule and auto-escalates
// incidents that have been unhandled for too long:
// - Critical open + unassigned > 15 min
// - High open + unassigned > 1 hour
// - Investigating > 30 min
func EscalateStaleIncidentsWorkflow(ctx workflow.Context) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var stale []activity.StaleIncident
	if err := workflow.ExecuteActivity(ctx, "FindStaleIncidents").Get(ctx, &stale); err != nil {
		return err
	}

	for _, inc := range stale {
		err := workflow.ExecuteActivity(ctx, "EscalateIncident", activity.EscalateIncidentParams{
			IncidentID: inc.ID,
			Reason:     inc.Reason,
			Actor:      "system:escalation-cron",
		}).Get(ctx, nil)
		if err != nil {
			workflow.GetLogger(ctx).Warn("failed to escalate stale incident",
				"id", inc.ID, "error", err)
		}
	}

	return nil
}
