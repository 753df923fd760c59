package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myrupee/internal/amqp"
	"myrupee/internal/cli"
	"myrupee/internal/config"
	applog "myrupee/internal/log"
	"myrupee/internal/sheets"
	gsheet "myrupee/internal/sheets/google"
	memsheet "myrupee/internal/sheets/memory"
	"myrupee/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	boot := config.Load()
	logger := cli.SetupLogger(boot.LogLevel, boot.LogFormat).WithComponent(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting myrupee-worker", applog.FieldOperation, applog.OpStartup)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var writer sheets.TransactionWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Mirroring to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		writer = memsheet.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID set, mirroring to memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(repo, writer, cfg.MirrorBatchSize)

	ctx, shutdownDone := cli.GracefulShutdown(logger.Slog(), 30*time.Second, nil)

	// Catch up on anything published while the worker was down.
	if err := mirror.ProcessPending(ctx); err != nil {
		logger.Error("Startup mirror pass failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeTransactionChanged(gctx, mirror.HandleTransactionChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := mirror.ProcessPending(gctx); err != nil {
					logger.Error("Periodic mirror pass failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	logger.Info("Worker stopped", applog.FieldOperation, applog.OpShutdown)
}
