package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/amqp"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/backend"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cli"
	apphttp "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/http"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
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
	// Only the sheets session snapshots into the local database; for
	// sqlite the backend writes land there already.
	if backendCfg.Type == backend.SheetsBackend {
		opts.Local = result.Local
	}

	// With a broker the sheet push happens out of process in
	// backstage-worker; without one the session writes the sheet
	// through inline.
	var amqpClient *amqp.Client
	if backendCfg.Type == backend.SheetsBackend && cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to inline sheet writes", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			sheetID := result.SheetID
			opts.Publish = func(ctx context.Context, version int64) error {
				return amqpClient.PublishTableSync(ctx, sheetID, version)
			}
			logger.Info("AMQP client initialized, sheet pushes go through backstage-worker")
		}
	}

	sess, err := session.New(ctx, opts)
	if err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	status := sess.Status()
	logger.Info("session ready",
		"backend", backendCfg.Type.String(),
		"capable", status.Capable,
		"rows", status.Rows,
		"version", status.Version)

	serverCfg := apphttp.DefaultConfig()
	serverCfg.Addr = ":" + cfg.Port
	srv, err := apphttp.NewServer(serverCfg, sess, result.Local)
	if err != nil {
		logger.Error("failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	})

	logger.Info("starting backstage server", "port", cfg.Port, "backend", backendCfg.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("server stopped gracefully")
}
