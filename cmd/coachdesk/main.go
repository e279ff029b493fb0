package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	"github.com/claude/coachdesk/internal/api"
	"github.com/claude/coachdesk/internal/config"
	"github.com/claude/coachdesk/internal/session"
	"github.com/claude/coachdesk/internal/web"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// sessionMaxAge is how long stale sessions survive before the startup
// purge drops them.
const sessionMaxAge = 30 * 24 * time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("CoachDesk starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open local state (sessions + workout drafts)
	store, err := session.Open(cfg.State.Dir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.PurgeOlderThan(sessionMaxAge); err != nil {
		log.Warn("session purge failed", "error", err)
	}

	// Backend client. An unreachable backend is not fatal: pages show
	// the error and recover once it comes back.
	backend := api.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := backend.Health(ctx); err != nil {
		log.Warn("backend not reachable", "url", cfg.Backend.BaseURL, "error", err)
	} else {
		log.Info("backend reachable", "url", cfg.Backend.BaseURL)
	}
	cancel()

	csrfKey, err := csrfKeyFromConfig(cfg.Web.CSRFKey, log)
	if err != nil {
		log.Error("invalid csrf key", "error", err)
		os.Exit(1)
	}

	srv, err := web.New(backend, store, log, web.Options{
		CSRFKey:         csrfKey,
		InsecureCookies: !cfg.Tailscale.Enabled,
	})
	if err != nil {
		log.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		// HTTPS on the tailnet: cookies carry the Secure flag in this
		// mode, so the listener must actually speak TLS.
		listener, err = tsServer.ListenTLS("tcp", ":443")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// csrfKeyFromConfig decodes the configured hex key, or generates a
// random one for dev: forms break across restarts without a fixed key.
func csrfKeyFromConfig(hexKey string, log *slog.Logger) ([]byte, error) {
	if hexKey != "" {
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("decoding csrf key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(key))
		}
		return key, nil
	}

	log.Warn("no csrf key configured, generating a random one (dev only)")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating csrf key: %w", err)
	}
	return key, nil
}
