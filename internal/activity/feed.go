package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/core"
	"github.com/edlund/sentinel/internal/feeds"
)

// FeedActivities ingests threat intelligence feeds.
type FeedActivities struct {
	configPath string
	fetcher    *feeds.Fetcher
	threats    *core.ThreatService
	logger     zerolog.Logger
}

// NewFeedActivities creates a new FeedActivities struct.
func NewFeedActivities(configPath string, db DB, logger zerolog.Logger) *FeedActivities {
	return &FeedActivities{
		configPath: configPath,
		fetcher:    feeds.NewFetcher(30 * time.Second),
		threats:    core.NewThreatService(db),
		logger:     logger,
	}
}

// LoadFeedSources reads the feed definition file and returns enabled sources.
func (a *FeedActivities) LoadFeedSources(ctx context.Context) ([]feeds.Source, error) {
	cfg, err := feeds.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Enabled(), nil
}

// IngestFeedResult is the result of IngestFeed.
type IngestFeedResult struct {
	Source   string `json:"source"`
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
}

// IngestFeed fetches one feed source and upserts its indicators. Fetch and
// upsert stay in one activity so indicator lists never ride through workflow
// history.
func (a *FeedActivities) IngestFeed(ctx context.Context, src feeds.Source) (*IngestFeedResult, error) {
	threats, err := a.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}

	result := &IngestFeedResult{Source: src.Name, Fetched: len(threats)}
	for i := range threats {
		if err := a.threats.Upsert(ctx, &threats[i]); err != nil {
			a.logger.Warn().Err(err).
				Str("feed", src.Name).
				Str("indicator", threats[i].Indicator).
				Msg("failed to upsert feed indicator")
			continue
		}
		result.Upserted++
	}
	return result, nil
}
