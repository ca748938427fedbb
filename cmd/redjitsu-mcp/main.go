package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/whataboutred/redjitsu/internal/config"
	"github.com/whataboutred/redjitsu/internal/mcp"
	"github.com/whataboutred/redjitsu/internal/storage"
	"github.com/whataboutred/redjitsu/internal/suggest"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Speaks MCP over stdio so an assistant can query training history
// directly. Logs go to stderr; stdout is the protocol channel.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	resolver := suggest.New(db, log, suggest.Options{
		Timeout:       cfg.Suggestions.Timeout(),
		MaxRetries:    cfg.Suggestions.MaxRetries,
		MaxConcurrent: cfg.Suggestions.MaxConcurrent,
		HistoryLimit:  cfg.Suggestions.HistoryLimit,
	})

	s := mcp.New(db, resolver, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
