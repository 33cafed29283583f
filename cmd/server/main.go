package main

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"

	"github.com/valutatrade/hub/infra/initializer"
	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(deps, cfg)

	// Refresh once at startup so the cache is warm, then keep it fresh in
	// the background. A failed first cycle is not fatal; the durable cache
	// may still be within TTL.
	ctx := context.Background()
	if _, err := a.Aggregator.RunUpdate(ctx); err != nil {
		logger.Warn("initial rate update failed", "error", err)
	}
	a.Scheduler.Start(ctx)
	defer a.Scheduler.Stop()

	fiberApp := webapi.SetupApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"env", cfg.Env,
		"address", addr,
	)
	return fiberApp.Listen(addr)
}
