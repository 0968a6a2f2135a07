package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/navsync/internal/catalog"
	"github.com/JonMunkholm/navsync/internal/config"
	"github.com/JonMunkholm/navsync/internal/core"
	"github.com/JonMunkholm/navsync/internal/extract"
	"github.com/JonMunkholm/navsync/internal/logging"
	"github.com/JonMunkholm/navsync/internal/mailbox"
	"github.com/JonMunkholm/navsync/internal/store"
	"github.com/JonMunkholm/navsync/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg)

	engine, err := buildEngine(cfg.Extract)
	if err != nil {
		slog.Error("failed to build extraction engine", "error", err)
		os.Exit(1)
	}
	slog.Info("field catalog loaded",
		"fields", engine.Catalog().Len(),
		"path", cfg.Extract.CatalogPath,
		"keyword_match", cfg.Extract.KeywordMatch,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.NewStore(pool)
	if err := st.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.Migrate {
		if err := st.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err, "code", core.ErrorCode(err))
			os.Exit(1)
		}
		slog.Info("database schema applied")
	}

	var source mailbox.Source
	if cfg.Ingest.MailEnabled() {
		source = mailbox.NewDir(cfg.Ingest.MailDir)
		slog.Info("mail source configured", "dir", cfg.Ingest.MailDir)
	}

	service := core.NewService(engine, st, source, core.Config{
		MaxFileSize:   cfg.Ingest.MaxFileSize,
		MaxConcurrent: cfg.Ingest.MaxConcurrent,
		MaxWait:       cfg.Ingest.MaxWaitTime,
	})

	server := web.NewServer(service, cfg.Server, st.Ping)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if cfg.Ingest.SyncEnabled {
		go service.StartSyncScheduler(jobCtx, cfg.Ingest.SyncInterval)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active ingests to complete (with timeout)
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for ingests to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("ingests did not complete in time", "error", err)
			} else {
				slog.Info("all ingests completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// buildEngine loads the catalog and applies the configured thresholds.
func buildEngine(cfg config.ExtractConfig) (*extract.Engine, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	opts := extract.Options{
		HeaderScanRows:  cfg.HeaderScanRows,
		MinHeaderFields: cfg.MinHeaderFields,
		MinCoreFields:   cfg.MinCoreFields,
		LabelDelimiters: cfg.LabelDelimiters,
	}
	if strings.EqualFold(cfg.KeywordMatch, "exact") {
		opts.KeywordRule = extract.ExactRule(cat.Keywords())
	}
	return extract.New(cat, opts), nil
}
