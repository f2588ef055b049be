package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reelrivals/internal/app/bootstrap"
	"reelrivals/internal/platform/config"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM, optionally running the worker loop in-process.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := bootstrap.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap api failed", "event", "api_bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("api shutdown close failed", "event", "api_close_failed", "error", err.Error())
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("reelrivals api stopped with error", "event", "api_stopped", "error", err.Error())
		stop()
		os.Exit(1)
	}
}
