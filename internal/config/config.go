package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL     string
	HTTPListenAddr  string
	MetricsAddr     string
	TemporalAddress string
	LogLevel        string
	ServiceName     string

	// LLM backend (OpenAI-compatible chat completions endpoint).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Redis, used for scan-endpoint rate limiting.
	RedisAddr     string
	RedisPassword string

	// S3 export target.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// Feed sources definition file for the ingest worker.
	FeedConfigPath string

	// ScanRateLimit is the per-key number of scan requests allowed per minute.
	ScanRateLimit int

	// Retention and health thresholds for the worker crons.
	AttackRetentionDays      int
	AuditLogRetentionDays    int
	MonitorStaleAfterMinutes int

	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ServiceName:     getEnv("SERVICE_NAME", ""),

		LLMBaseURL: getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		FeedConfigPath: getEnv("FEED_CONFIG_PATH", "feeds.yaml"),

		ScanRateLimit: getEnvInt("SCAN_RATE_LIMIT", 30),

		AttackRetentionDays:      getEnvInt("ATTACK_RETENTION_DAYS", 90),
		AuditLogRetentionDays:    getEnvInt("AUDIT_LOG_RETENTION_DAYS", 365),
		MonitorStaleAfterMinutes: getEnvInt("MONITOR_STALE_AFTER_MINUTES", 10),

		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
	}

	return cfg, nil
}

// Validate checks that the fields required by the given binary are set.
func (c *Config) Validate(service string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if service == "worker" && c.TemporalAddress == "" {
		return fmt.Errorf("TEMPORAL_ADDRESS is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
