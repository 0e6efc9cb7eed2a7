package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/fittrack/internal/backup"
	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/store"
	"github.com/claude/fittrack/internal/store/firestore"
	"github.com/claude/fittrack/internal/store/postgres"
	"github.com/claude/fittrack/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("export", "", "write a snapshot of all data to this file")
	restorePath := flag.String("restore", "", "restore a snapshot from this file")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*exportPath == "") == (*restorePath == "") {
		fmt.Fprintf(os.Stderr, "Usage: fittrack-backup -config config.yaml (-export file.json | -restore file.json) [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer gw.Close()
	log.Info("store connected", "driver", cfg.Store.Driver)

	runner := backup.New(gw, cfg.Auth.User, log, *dryRun)

	if *exportPath != "" {
		f, err := os.Create(*exportPath)
		if err != nil {
			log.Error("failed to create snapshot file", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := runner.Export(ctx, f); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *dryRun {
		log.Info("DRY RUN mode, nothing will be written to the store")
	}

	f, err := os.Open(*restorePath)
	if err != nil {
		log.Error("failed to open snapshot file", "path", *restorePath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	stats, err := runner.Restore(ctx, f)
	if err != nil {
		log.Error("restore failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}
	printStats(log, stats)
	log.Info("restore complete")
}

func printStats(log *slog.Logger, stats *backup.Stats) {
	if stats == nil {
		return
	}
	log.Info("restore stats",
		"profiles_restored", stats.ProfilesRestored,
		"profiles_skipped", stats.ProfilesSkipped,
		"documents_restored", stats.DocumentsRestored,
		"documents_skipped", stats.DocumentsSkipped,
	)
}

func openGateway(ctx context.Context, cfg *config.Config) (store.Gateway, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return postgres.Open(ctx, cfg.Store.Postgres.DSN())
	case "sqlite":
		return sqlite.Open(cfg.Store.SQLite.Path)
	case "firestore":
		return firestore.Open(ctx, cfg.Store.Firestore.ProjectID)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
