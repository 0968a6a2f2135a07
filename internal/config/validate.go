package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Server.validate()...)
	errs = append(errs, c.Database.validate()...)
	errs = append(errs, c.Ingest.validate()...)
	errs = append(errs, c.Extract.validate()...)
	errs = append(errs, c.Logging.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// oneOf checks value case-insensitively against allowed.
func oneOf(name, value string, allowed ...string) []string {
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return []string{fmt.Sprintf("%s (%q) must be one of: %s", name, value, strings.Join(allowed, ", "))}
}

func (s ServerConfig) validate() []string {
	var errs []string
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if s.UploadsPerMinute < 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be non-negative")
	}
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is set but API_KEYS is empty")
	}
	return errs
}

func (d DatabaseConfig) validate() []string {
	var errs []string
	if d.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	return errs
}

func (i IngestConfig) validate() []string {
	var errs []string
	if i.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if i.MaxConcurrent <= 0 {
		errs = append(errs, "INGEST_MAX_CONCURRENT must be positive")
	}
	if i.MaxWaitTime <= 0 {
		errs = append(errs, "INGEST_MAX_WAIT_TIME must be positive")
	}
	// The interval only matters when there is a mailbox to poll.
	if i.SyncEnabled && i.MailEnabled() && i.SyncInterval <= 0 {
		errs = append(errs, "SYNC_INTERVAL must be positive when mail sync is enabled")
	}
	return errs
}

func (e ExtractConfig) validate() []string {
	var errs []string
	if e.HeaderScanRows <= 0 {
		errs = append(errs, "EXTRACT_HEADER_SCAN_ROWS must be positive")
	}
	if e.MinHeaderFields <= 0 {
		errs = append(errs, "EXTRACT_MIN_HEADER_FIELDS must be positive")
	}
	if e.MinCoreFields <= 0 || e.MinCoreFields > 5 {
		errs = append(errs, fmt.Sprintf("EXTRACT_MIN_CORE_FIELDS (%d) must be 1-5", e.MinCoreFields))
	}
	return append(errs, oneOf("EXTRACT_KEYWORD_MATCH", e.KeywordMatch, "containment", "exact")...)
}

func (l LoggingConfig) validate() []string {
	errs := oneOf("LOG_LEVEL", l.Level, "debug", "info", "warn", "error")
	return append(errs, oneOf("LOG_FORMAT", l.Format, "text", "json")...)
}

// LogValue renders the config for structured logs. The database URL and API
// keys are never included.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("server",
			slog.String("addr", c.Server.Addr()),
			slog.Int("uploadsPerMinute", c.Server.UploadsPerMinute),
			slog.Bool("requireAPIKey", c.Server.RequireAPIKey),
			slog.Int("apiKeys", len(c.Server.APIKeys)),
		),
		slog.Group("database",
			slog.String("url", "[MASKED]"),
			slog.Int("maxConns", c.Database.MaxConns),
			slog.Int("minConns", c.Database.MinConns),
			slog.Bool("migrate", c.Database.Migrate),
		),
		slog.Group("ingest",
			slog.String("mailDir", c.Ingest.MailDir),
			slog.Bool("syncEnabled", c.Ingest.SyncEnabled),
			slog.Duration("syncInterval", c.Ingest.SyncInterval),
			slog.Int64("maxFileSize", c.Ingest.MaxFileSize),
			slog.Int("maxConcurrent", c.Ingest.MaxConcurrent),
		),
		slog.Group("extract",
			slog.String("catalogPath", c.Extract.CatalogPath),
			slog.String("keywordMatch", c.Extract.KeywordMatch),
			slog.Int("minCoreFields", c.Extract.MinCoreFields),
		),
		slog.Group("logging",
			slog.String("level", c.Logging.Level),
			slog.String("format", c.Logging.Format),
		),
	)
}
