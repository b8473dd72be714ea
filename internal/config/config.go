// Package config loads tabload settings from environment variables, with
// defaults for everything except the database connection string, and
// validates the result before anything connects.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings for `tabload serve`.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds a whole load request, so it is generous (default: 10m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig selects the target engine and how to reach it.
type DatabaseConfig struct {
	// Driver is one of sqlserver, postgres, mysql, sqlite (default: sqlserver)
	Driver string `env:"DB_DRIVER" default:"sqlserver"`

	// URL is the driver-specific DSN (required).
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"5s"`
}

// IngestConfig holds pipeline and artifact settings.
type IngestConfig struct {
	// ManagedColumn is the table column stamped by the loader itself (default: Bi_ejecucion)
	ManagedColumn string `env:"MANAGED_COLUMN" default:"Bi_ejecucion"`

	// ManagedOrigin tags manual-mode stamps written to text managed columns
	ManagedOrigin string `env:"MANAGED_ORIGIN" default:"tabload"`

	// ReportDir receives summary.txt / inserted.csv / errors.csv (default: logs)
	ReportDir string `env:"REPORT_DIR" default:"logs"`

	// MaxFileSize is the largest accepted source file in bytes (default: 50MB)
	MaxFileSize int64 `env:"MAX_FILE_SIZE" default:"52428800"`

	// SourceEncoding is utf-8 or windows-1252 (default: utf-8)
	SourceEncoding string `env:"SOURCE_ENCODING" default:"utf-8"`

	// MaxConcurrentRuns caps simultaneous loads served over HTTP (default: 4)
	MaxConcurrentRuns int `env:"MAX_CONCURRENT_RUNS" default:"4"`

	// RunWaitTime is how long a request waits for a run slot (default: 30s)
	RunWaitTime time.Duration `env:"RUN_WAIT_TIME" default:"30s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key auth on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls Pushgateway export for CLI runs.
type MetricsConfig struct {
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `env:"METRICS_JOB" default:"tabload"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
