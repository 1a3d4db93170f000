package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.ScanRateLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sentinel")
	t.Setenv("HTTP_LISTEN_ADDR", ":9999")
	t.Setenv("SCAN_RATE_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/sentinel", cfg.DatabaseURL)
	assert.Equal(t, ":9999", cfg.HTTPListenAddr)
	assert.Equal(t, 5, cfg.ScanRateLimit)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("SCAN_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.ScanRateLimit)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate("api"))

	cfg.DatabaseURL = "postgres://localhost/sentinel"
	require.NoError(t, cfg.Validate("api"))
}

func TestTemporalTLS_Plaintext(t *testing.T) {
	cfg := &Config{}
	tlsConfig, err := cfg.TemporalTLS()
	require.NoError(t, err)
	assert.Nil(t, tlsConfig)
}
