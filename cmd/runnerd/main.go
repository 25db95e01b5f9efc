package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlas-broker-runner/internal/logger"
	"atlas-broker-runner/internal/orderlog"
	"atlas-broker-runner/internal/policy"
	"atlas-broker-runner/internal/server"
	"atlas-broker-runner/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig(ctx)
	orderlog.SetDir(cfg.OrderLog.Dir)
	compressOldJournals(ctx, cfg)
	installBrowsers(ctx)

	registry := initializeRegistry(ctx, cfg)
	defer registry.CloseAll()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(cfg, registry, policy.NewClient(cfg)).Router(),
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "HTTP server failed", err)
			cancel()
		}
	}()

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "HTTP shutdown", "error", err.Error())
	}
	registry.CloseAll()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown", "error", err.Error())
	}
}
