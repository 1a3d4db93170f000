package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edlund/sentinel/internal/export"
)

// RetentionParams configures the nightly retention run.
type RetentionParams struct {
	AttackRetentionDays   int  `json:"attack_retention_days"`
	AuditLogRetentionDays int  `json:"audit_log_retention_days"`
	ArchiveBeforePurge    bool `json:"archive_before_purge"`
}

// RetentionWorkflow archives and prunes aged data: optionally snapshots the
// live attack history to object storage, then deletes attacks and audit logs
// past their retention window.
func RetentionWorkflow(ctx workflow.Context, params RetentionParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	if params.ArchiveBeforePurge {
		var result export.Result
		err := workflow.ExecuteActivity(ctx, "RunExport", []string{"live_attacks", "blocked_attacks"}).Get(ctx, &result)
		if err != nil {
			// Purging without the archive would lose the history for good.
			return err
		}
		logger.Info("archived attack history", "bucket", result.Bucket, "objects", len(result.Objects))
	}

	var purgedAttacks int64
	if err := workflow.ExecuteActivity(ctx, "PurgeOldAttacks", params.AttackRetentionDays).Get(ctx, &purgedAttacks); err != nil {
		return err
	}

	var purgedAuditLogs int64
	if err := workflow.ExecuteActivity(ctx, "DeleteOldAuditLogs", params.AuditLogRetentionDays).Get(ctx, &purgedAuditLogs); err != nil {
		return err
	}

	logger.Info("retention run complete",
		"purged_attacks", purgedAttacks, "purged_audit_logs", purgedAuditLogs)
	return nil
}
