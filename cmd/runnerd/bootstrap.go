package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"atlas-broker-runner/internal/interfaces"
	"atlas-broker-runner/internal/logger"
	"atlas-broker-runner/internal/orderlog"
	"atlas-broker-runner/internal/runner"
	"atlas-broker-runner/internal/runner/runnerobs"
	"atlas-broker-runner/internal/store"
	"atlas-broker-runner/internal/trace"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads config.yaml, falling back to defaults when the file is
// absent so a bare container still boots.
func loadConfig(ctx context.Context) *store.Config {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn(ctx, "No config.yaml found, using defaults")
			return store.DefaultConfig()
		}
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}
	return cfg
}

// installBrowsers downloads the browser binaries on first run. Skippable
// for images that bake them in at build time.
func installBrowsers(ctx context.Context) {
	if os.Getenv("PLAYWRIGHT_SKIP_INSTALL") == "1" {
		return
	}
	logger.Info(ctx, "Ensuring browser binaries are installed")
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		logger.Warn(ctx, "Browser install failed - launches may not work", "error", err.Error())
	}
}

// compressOldJournals compresses old order journal files if retention is
// configured
func compressOldJournals(ctx context.Context, cfg *store.Config) {
	days := cfg.OrderLog.RetentionDays
	if v := os.Getenv("ORDER_LOG_RETENTION_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &days)
	}
	if err := orderlog.CompressOlder(days); err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
	}
}

// initializeRegistry builds the runner registry with observability
// middleware around every runner it creates
func initializeRegistry(ctx context.Context, cfg *store.Config) *runner.Registry {
	blog, err := zap.NewProduction()
	if err != nil {
		blog = zap.NewNop()
	}

	reg := runner.NewRegistry(blog, func(key string, r interfaces.Runner) interfaces.Runner {
		return runnerobs.Wrap(key, r)
	})
	if err := reg.Ensure(cfg.Brokers); err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize runners", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Runner registry ready", "brokers", cfg.Brokers)
	return reg
}
