package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/edlund/sentinel/internal/activity"
	"github.com/edlund/sentinel/internal/config"
	"github.com/edlund/sentinel/internal/db"
	"github.com/edlund/sentinel/internal/export"
	"github.com/edlund/sentinel/internal/logging"
	"github.com/edlund/sentinel/internal/metrics"
	"github.com/edlund/sentinel/internal/workflow"
)

const taskQueue = "sentinel-tasks"

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, taskQueue, worker.Options{})

	// Register activities
	securityDBActivities := activity.NewSecurityDB(pool)
	w.RegisterActivity(securityDBActivities)

	feedActivities := activity.NewFeedActivities(cfg.FeedConfigPath, pool, logger)
	w.RegisterActivity(feedActivities)

	var exporter *export.Exporter
	if cfg.S3Bucket != "" {
		exporter = export.NewExporter(pool, export.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger)
	}
	exportActivities := activity.NewExportActivities(exporter)
	w.RegisterActivity(exportActivities)

	// Register workflows
	w.RegisterWorkflow(workflow.FeedIngestWorkflow)
	w.RegisterWorkflow(workflow.EscalateStaleIncidentsWorkflow)
	w.RegisterWorkflow(workflow.MonitorHealthWorkflow)
	w.RegisterWorkflow(workflow.RetentionWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	// Register cron schedules. Errors for already-existing schedules are
	// ignored so that re-deploys do not fail.
	registerCronSchedules(ctx, tc, taskQueue, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

type cronSchedule struct {
	id       string
	cron     string
	workflow interface{}
	args     []interface{}
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, taskQueue string, cfg *config.Config, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			id:       "feed-ingest-cron",
			cron:     "*/15 * * * *",
			workflow: workflow.FeedIngestWorkflow,
		},
		{
			id:       "incident-escalation-cron",
			cron:     "*/5 * * * *",
			workflow: workflow.EscalateStaleIncidentsWorkflow,
		},
		{
			id:       "monitor-health-cron",
			cron:     "*/10 * * * *",
			workflow: workflow.MonitorHealthWorkflow,
			args:     []interface{}{cfg.MonitorStaleAfterMinutes},
		},
		{
			id:       "retention-cron",
			cron:     "0 4 * * *",
			workflow: workflow.RetentionWorkflow,
			args: []interface{}{workflow.RetentionParams{
				AttackRetentionDays:   cfg.AttackRetentionDays,
				AuditLogRetentionDays: cfg.AuditLogRetentionDays,
				ArchiveBeforePurge:    cfg.S3Bucket != "",
			}},
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: taskQueue,
			},
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
				logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
			} else {
				logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
			}
		} else {
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		}
	}
}
