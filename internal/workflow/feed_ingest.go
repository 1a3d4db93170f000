package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edlund/sentinel/internal/activity"
	"github.com/edlund/sentinel/internal/feeds"
	"github.com/edlund/sentinel/internal/model"
)

// FeedIngestWorkflow runs on a cron schedule, pulls every enabled threat
// feed, and upserts its indicators. A failing feed is logged and skipped so
// one dead source never starves the rest.
func FeedIngestWorkflow(ctx workflow.Context) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var sources []feeds.Source
	if err := workflow.ExecuteActivity(ctx, "LoadFeedSources").Get(ctx, &sources); err != nil {
		return err
	}

	totalUpserted := 0
	for _, src := range sources {
		var result activity.IngestFeedResult
		err := workflow.ExecuteActivity(ctx, "IngestFeed", src).Get(ctx, &result)
		if err != nil {
			logger.Warn("feed ingest failed", "feed", src.Name, "error", err)
			continue
		}
		logger.Info("feed ingested",
			"feed", result.Source, "fetched", result.Fetched, "upserted", result.Upserted)
		totalUpserted += result.Upserted
	}

	// The ingest cron is the liveness signal for feed monitors.
	var beats int64
	if err := workflow.ExecuteActivity(ctx, "HeartbeatRunningMonitors", model.MonitorFeed).Get(ctx, &beats); err != nil {
		logger.Warn("failed to heartbeat feed monitors", "error", err)
	}

	logger.Info("feed ingest run complete", "sources", len(sources), "upserted", totalUpserted)
	return nil
}
