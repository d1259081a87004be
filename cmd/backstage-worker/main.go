package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/amqp"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cli"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/services"
	gsheet "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/sheets/google"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/worker"
)

// backstage-worker consumes table sync messages from AMQP and pushes the
// newest local snapshot to the Google Sheet. It is only needed when the
// server runs with the sheets backend and a broker; without it the
// server writes the sheet through inline.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("starting backstage-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.SpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required, the worker exists to push snapshots to the sheet")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required, the worker is driven by sync messages")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SpreadsheetID)

	processorCfg := services.DefaultSyncProcessorConfig()
	processorCfg.PollInterval = cfg.SyncInterval
	processor := services.NewSyncProcessor(syncWorker, cfg.SpreadsheetID, processorCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push whatever the sheet missed while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("startup sync check failed", "error", err)
		// Keep going; the processor retries on its poll interval.
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start sync processor", "error", err)
		os.Exit(1)
	}

	go func() {
		err := amqpClient.ConsumeTableSync(ctx, func(msg *amqp.TableSyncMessage) error {
			return processor.HandleMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("message consumption failed", "error", err)
			cancel()
		}
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Error("sync processor stop error", "error", err)
		}
	})

	select {
	case <-ctx.Done():
		// The consumer died; stop the processor and fall out rather
		// than idle without input.
		logger.Error("message consumer stopped, shutting down")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := processor.Stop(stopCtx); err != nil {
			logger.Error("sync processor stop error", "error", err)
		}
		stopCancel()
	case <-shutdownCtx.Done():
		cli.WaitForShutdown(shutdownCtx, done)
	}

	logger.Info("backstage-worker stopped")
}
