// Package feeds loads threat feed definitions from YAML and fetches feed
// entries for ingestion.
package feeds

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edlund/sentinel/internal/model"
)

// Feed formats.
const (
	FormatPlain = "plain" // one indicator per line, # comments
	FormatJSON  = "json"  // array of {indicator, severity, title, ...}
)

// Source is one configured threat feed.
type Source struct {
	Name          string `yaml:"name"`
	URL           string `yaml:"url"`
	Format        string `yaml:"format"`
	Type          string `yaml:"type"`           // threat type for ingested entries
	IndicatorKind string `yaml:"indicator_kind"` // ip, domain, url, hash
	Severity      string `yaml:"severity"`       // default severity when the feed has none
	Enabled       bool   `yaml:"enabled"`
}

// Config is the top-level feeds file.
type Config struct {
	Sources []Source `yaml:"sources"`
}

// Load reads and validates the feed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse feed config: %w", err)
	}

	for i, src := range cfg.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("feed %d: missing name", i)
		}
		if src.URL == "" {
			return nil, fmt.Errorf("feed %q: missing url", src.Name)
		}
		switch src.Format {
		case FormatPlain, FormatJSON:
		default:
			return nil, fmt.Errorf("feed %q: unknown format %q", src.Name, src.Format)
		}
		if src.Severity != "" && !model.ValidSeverity(src.Severity) {
			return nil, fmt.Errorf("feed %q: invalid severity %q", src.Name, src.Severity)
		}
	}
	return &cfg, nil
}

// Enabled returns only the enabled sources.
func (c *Config) Enabled() []Source {
	var out []Source
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

// jsonEntry is the accepted shape for JSON feeds. Unknown fields are ignored.
type jsonEntry struct {
	Indicator   string   `json:"indicator"`
	Severity    string   `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CountryCode string   `json:"country_code"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads one feed and converts its entries to threats.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]model.Threat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "sentinel-feed/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", src.Name, resp.StatusCode)
	}

	switch src.Format {
	case FormatJSON:
		var entries []jsonEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode feed %s: %w", src.Name, err)
		}
		return convertJSON(src, entries), nil
	default:
		threats, err := parsePlain(src, bufio.NewScanner(resp.Body))
		if err != nil {
			return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
		}
		return threats, nil
	}
}

func parsePlain(src Source, scanner *bufio.Scanner) ([]model.Threat, error) {
	var threats []model.Threat
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		// Some feeds append comments after the indicator.
		if idx := strings.IndexAny(line, " \t"); idx != -1 {
			line = line[:idx]
		}
		threats = append(threats, threatFromSource(src, line, "", ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return threats, nil
}

func convertJSON(src Source, entries []jsonEntry) []model.Threat {
	var threats []model.Threat
	for _, e := range entries {
		if e.Indicator == "" {
			continue
		}
		t := threatFromSource(src, e.Indicator, e.Severity, e.Title)
		if e.Description != "" {
			t.Description = e.Description
		}
		if e.CountryCode != "" {
			cc := e.CountryCode
			t.CountryCode = &cc
		}
		t.Latitude = e.Latitude
		t.Longitude = e.Longitude
		threats = append(threats, t)
	}
	return threats
}

func threatFromSource(src Source, indicator, severity, title string) model.Threat {
	if severity == "" || !model.ValidSeverity(severity) {
		severity = src.Severity
	}
	if severity == "" {
		severity = model.SeverityMedium
	}
	if title == "" {
		title = fmt.Sprintf("%s indicator from %s", src.Type, src.Name)
	}

	feedName := src.Name
	t := model.Threat{
		Type:          src.Type,
		Severity:      severity,
		Title:         title,
		Indicator:     indicator,
		IndicatorKind: src.IndicatorKind,
		SourceFeed:    &feedName,
	}
	if src.IndicatorKind == "ip" {
		ip := indicator
		t.SourceIP = &ip
	}
	return t
}
