// coachdesk-mcp serves the CoachDesk MCP tools over stdio, for use as
// a local MCP server entry in an assistant's configuration. It talks
// to the same coaching backend as the web app, acting as the token
// configured under mcp in the config file.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/coachdesk/internal/api"
	"github.com/claude/coachdesk/internal/config"
	"github.com/claude/coachdesk/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// stdout carries the MCP protocol; logs must go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.MCP.Token == "" {
		log.Error("mcp.token is required (a backend bearer token)")
		os.Exit(1)
	}

	backend := api.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second).
		WithToken(cfg.MCP.Token)

	srv := mcp.New(backend, cfg.MCP.Role, Version, log)
	log.Info("CoachDesk MCP serving on stdio", "role", cfg.MCP.Role, "backend", cfg.Backend.BaseURL)

	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
