package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/loadimport/internal/config"
	"github.com/JonMunkholm/loadimport/internal/core"
	_ "github.com/JonMunkholm/loadimport/internal/core/formats" // Register broker and TMS formats
	"github.com/JonMunkholm/loadimport/internal/database"
	"github.com/JonMunkholm/loadimport/internal/logging"
	"github.com/JonMunkholm/loadimport/internal/web"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	core.MaxHeaderScanRows = cfg.Import.HeaderScanRows

	service := core.NewService(database.NewStore(pool), core.ServiceConfig{
		MaxFileSize:          cfg.Import.MaxFileSize,
		SessionTTL:           cfg.Import.SessionTTL,
		CommitTimeout:        cfg.Import.CommitTimeout,
		MaxConcurrentCommits: cfg.Import.MaxConcurrentCommits,
		CommitWait:           cfg.Import.CommitWait,
		Orchestrator: core.OrchestratorConfig{
			Seed: cfg.Import.SequenceSeed,
		},
	})

	formats := core.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f.Source)
	}
	slog.Info("import formats registered", "count", len(formats), "formats", names)

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Import.SweepInterval)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests first, then let running commits finish.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if status := service.CommitLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for commits to complete", "active", status.Active)
			if err := service.WaitForCommits(shutdownCtx); err != nil {
				slog.Warn("commits did not complete in time", "error", err)
			} else {
				slog.Info("all commits completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
}
