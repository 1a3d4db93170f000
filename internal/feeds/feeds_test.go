package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlund/sentinel/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: abuse-ch
    url: https://feeds.example.com/ips.txt
    format: plain
    type: botnet
    indicator_kind: ip
    severity: high
    enabled: true
  - name: phish-json
    url: https://feeds.example.com/phish.json
    format: json
    type: phishing
    indicator_kind: url
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "abuse-ch", cfg.Sources[0].Name)
	assert.Equal(t, model.SeverityHigh, cfg.Sources[0].Severity)

	enabled := cfg.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "abuse-ch", enabled[0].Name)
}

func TestLoad_InvalidFormat(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: bad
    url: https://feeds.example.com/x
    format: csv
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "csv"`)
}

func TestLoad_InvalidSeverity(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: bad
    url: https://feeds.example.com/x
    format: plain
    severity: extreme
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid severity "extreme"`)
}

func TestFetcher_Fetch_Plain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# botnet IPs\n203.0.113.10\n198.51.100.7 ; seen 2026-08-27\n\n"))
	}))
	defer srv.Close()

	src := Source{
		Name:          "abuse-ch",
		URL:           srv.URL,
		Format:        FormatPlain,
		Type:          "botnet",
		IndicatorKind: "ip",
		Severity:      model.SeverityHigh,
	}

	threats, err := NewFetcher(5*time.Second).Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, threats, 2)
	assert.Equal(t, "203.0.113.10", threats[0].Indicator)
	assert.Equal(t, model.SeverityHigh, threats[0].Severity)
	require.NotNil(t, threats[0].SourceIP)
	assert.Equal(t, "203.0.113.10", *threats[0].SourceIP)
	assert.Equal(t, "198.51.100.7", threats[1].Indicator)
}

func TestFetcher_Fetch_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"indicator": "https://phish.example/login", "severity": "critical", "title": "Bank phish"},
			{"indicator": "", "severity": "low"},
			{"indicator": "https://scam.example", "severity": "bogus"}
		]`))
	}))
	defer srv.Close()

	src := Source{
		Name:          "phish-json",
		URL:           srv.URL,
		Format:        FormatJSON,
		Type:          "phishing",
		IndicatorKind: "url",
		Severity:      model.SeverityMedium,
	}

	threats, err := NewFetcher(5*time.Second).Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, threats, 2)
	assert.Equal(t, model.SeverityCritical, threats[0].Severity)
	assert.Equal(t, "Bank phish", threats[0].Title)
	// Unknown severity falls back to the source default.
	assert.Equal(t, model.SeverityMedium, threats[1].Severity)
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := Source{Name: "down", URL: srv.URL, Format: FormatPlain}

	_, err := NewFetcher(5*time.Second).Fetch(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
