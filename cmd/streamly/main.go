package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	corecfg "github.com/MercuryTechnologies/streamly/internal/core/config"
	"github.com/MercuryTechnologies/streamly/internal/core/storage/postgres"
	"github.com/MercuryTechnologies/streamly/internal/ingestion"
	"github.com/MercuryTechnologies/streamly/internal/migrations"
	"github.com/MercuryTechnologies/streamly/internal/query"
	"github.com/MercuryTechnologies/streamly/internal/server"
	"github.com/MercuryTechnologies/streamly/internal/tracker"
)

const replayTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "streamly.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "rules", len(cfg.RuleLoading.Rules), "rules_dir", cfg.RuleLoading.ConfigDir)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	snapStore := postgres.NewSnapshotAdapter(dbAdapter.DB())

	// 3. Initialize Tracker (live statistics)
	trk, err := tracker.New(cfg.RuleLoading.Rules)
	if err != nil {
		slog.Error("Failed to initialize tracker", "error", err)
		os.Exit(1)
	}

	// 3.1. Replay persisted samples so live statistics survive restarts.
	replayCtx, cancelReplay := context.WithTimeout(context.Background(), replayTimeout)
	if err := trk.Replay(replayCtx, dbAdapter, cfg.Tracker.ReplayBatchSize); err != nil {
		cancelReplay()
		slog.Error("Failed to replay samples", "error", err)
		os.Exit(1)
	}
	cancelReplay()

	// 4. Initialize Snapshotter (periodic persistence of live extracts)
	snapshotter := tracker.NewSnapshotter(
		cfg.Tracker.EffectiveSnapshotInterval(),
		trk,
		snapStore,
		cfg.Tracker.SnapshotWorkers,
	)
	slog.Info("Snapshotter initialized",
		"interval", cfg.Tracker.SnapshotInterval,
		"enabled", cfg.Tracker.SnapshotEnabled,
		"workers", cfg.Tracker.SnapshotWorkers,
	)

	// 5. Initialize Ingestion
	ingestionSvc := ingestion.NewService(trk, dbAdapter, cfg.Server.MaxBodySizeMB)

	// 6. Initialize Query API
	querySvc := query.NewService(trk, snapStore, cfg.RuleLoading.Rules)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	querySvc.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracker.SnapshotEnabled {
		go func() {
			if err := snapshotter.Start(ctx); err != nil {
				slog.Error("Snapshotter stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Snapshotter disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
