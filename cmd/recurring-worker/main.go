package main

import (
	"os"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/backend"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cli"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/services"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

// recurring-worker materializes due recurrence rules into transactions
// on a fixed interval. It appends through a session of its own, so the
// rows land in the same backend the server reads.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRecurring)
	logger.Info("starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Error("recurring rules need durable storage, set DATA_BACKEND to sqlite or sheets")
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(shutdownCtx, backendCfg)
	if err != nil {
		logger.Error("failed to build backend", "error", err, "backend", backendCfg.Type.String())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	opts := session.Options{
		Backend:        result.Backend,
		SheetID:        result.SheetID,
		ProbeTimeout:   cfg.ProbeTimeout,
		RefreshTimeout: cfg.RefreshTimeout,
	}
	if backendCfg.Type == backend.SheetsBackend {
		opts.Local = result.Local
	}
	// No publish hook: rule materializations are rare enough to write
	// the sheet through inline.
	sess, err := session.New(shutdownCtx, opts)
	if err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	processor := services.NewRecurringProcessor(result.Local, sess)

	logger.Info("recurring rule processor configured",
		"interval", cfg.RecurringInterval,
		"backend", backendCfg.Type.String())

	runOnce := func(now time.Time) {
		// Refresh first so appends build on the newest table.
		if err := sess.Refresh(shutdownCtx); err != nil {
			logger.Error("table refresh failed", "error", err)
			return
		}
		count, err := processor.ProcessDueRules(shutdownCtx, now)
		if err != nil {
			logger.Error("rule processing failed", "error", err)
			return
		}
		if count > 0 {
			logger.Info("materialized due rules", "created", count)
		}
	}

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	logger.Info("running initial rule processing")
	runOnce(time.Now())

	for {
		select {
		case <-shutdownCtx.Done():
			cli.WaitForShutdown(shutdownCtx, done)
			logger.Info("recurring-worker stopped")
			return
		case now := <-ticker.C:
			runOnce(now)
		}
	}
}
