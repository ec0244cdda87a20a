package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apresai/podcastr/internal/app"
	"github.com/apresai/podcastr/internal/config"
	"github.com/apresai/podcastr/internal/mcpserver"
	"github.com/apresai/podcastr/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(0).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.SlogLevel())

	logger.Info("Podcastr MCP Server starting...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := observability.InitTracer(ctx, "podcastr-mcp", "1.0.0", cfg.Environment)
	if err != nil {
		logger.Warn("Failed to init tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Tracer shutdown error", "error", err)
			}
		}()
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := mcpserver.New(cfg.MCPPort, a.MCPDeps(), logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown complete")
	}
}
