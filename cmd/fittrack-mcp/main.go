// Command fittrack-mcp exposes FitTrack data to MCP clients over stdio.
//
// In local mode it opens the configured store directly. With -remote it
// talks to a running FitTrack server's REST API instead, which is the
// mode to use when the data lives on another machine (e.g. reached over
// Tailscale).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/mcp"
	"github.com/claude/fittrack/internal/planner"
	"github.com/claude/fittrack/internal/store"
	"github.com/claude/fittrack/internal/store/firestore"
	"github.com/claude/fittrack/internal/store/postgres"
	"github.com/claude/fittrack/internal/store/sqlite"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	remote := flag.String("remote", "", "base URL of a running FitTrack server; uses its REST API instead of the local store")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var ds mcp.DataSource
	if *remote != "" {
		ds = mcp.NewHTTPClient(*remote, cfg.Auth.APIKey)
		log.Info("mcp server starting", "mode", "remote", "url", *remote)
	} else {
		gw, err := openGateway(context.Background(), cfg)
		if err != nil {
			log.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
			os.Exit(1)
		}
		defer gw.Close()

		pg := planner.New(cfg.Planner.Endpoint, cfg.Planner.Model, cfg.Planner.APIKey, log)
		ds = mcp.NewStoreSource(gw, pg, cfg.Auth.User)
		log.Info("mcp server starting", "mode", "local", "driver", cfg.Store.Driver)
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
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
