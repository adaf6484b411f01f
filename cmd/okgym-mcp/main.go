// okgym-mcp runs a stdio MCP server over one user's session data, for
// wiring OKGYM into MCP-capable clients.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/config"
	okmcp "github.com/kriskaiqi/okgym/internal/mcp"
	"github.com/kriskaiqi/okgym/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userIDStr := flag.String("user", "", "user UUID to scope all tool calls to")
	flag.Parse()

	// Logs go to stderr: stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	userID, err := uuid.Parse(*userIDStr)
	if err != nil {
		log.Error("a valid -user UUID is required", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN(), log)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := okmcp.New(db, Version, log)

	err = mcpserver.ServeStdio(srv, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return okmcp.WithUserID(ctx, userID)
	}))
	if err != nil {
		log.Error("mcp server exited", "error", err)
		os.Exit(1)
	}
}
