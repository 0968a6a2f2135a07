// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Extract  ExtractConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// UploadsPerMinute limits extract/ingest requests per client IP (default: 30)
	UploadsPerMinute int `env:"RATE_LIMIT_UPLOAD" default:"30"`

	// RequireAPIKey guards ingest and sync endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies the embedded schema on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// IngestConfig holds file ingest and mailbox sync settings.
type IngestConfig struct {
	// MailDir is the drop directory of .eml / .mbox files; empty disables sync
	MailDir string `env:"MAIL_DIR"`

	// SyncEnabled runs the background mailbox sync (default: true)
	SyncEnabled bool `env:"SYNC_ENABLED" default:"true"`

	// SyncInterval is how often the mailbox is synced (default: 15m)
	SyncInterval time.Duration `env:"SYNC_INTERVAL" default:"15m"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of parallel ingests (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an ingest slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`
}

// ExtractConfig holds extraction engine settings.
type ExtractConfig struct {
	// CatalogPath is a TOML field catalog; empty uses the built-in one
	CatalogPath string `env:"CATALOG_PATH"`

	// HeaderScanRows is how many leading rows may hold a header (default: 5)
	HeaderScanRows int `env:"EXTRACT_HEADER_SCAN_ROWS" default:"5"`

	// MinHeaderFields is the distinct fields a header row needs (default: 2)
	MinHeaderFields int `env:"EXTRACT_MIN_HEADER_FIELDS" default:"2"`

	// MinCoreFields is the core-field coverage a record needs (default: 3)
	MinCoreFields int `env:"EXTRACT_MIN_CORE_FIELDS" default:"3"`

	// LabelDelimiters split "label：value" cells (default: full-width colon)
	LabelDelimiters []string `env:"EXTRACT_LABEL_DELIMITERS" default:"："`

	// KeywordMatch is how values are compared to header keywords:
	// containment or exact (default: containment)
	KeywordMatch string `env:"EXTRACT_KEYWORD_MATCH" default:"containment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MailEnabled reports whether a mail drop directory is configured.
func (c *IngestConfig) MailEnabled() bool {
	return c.MailDir != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
