// Command fintrack-worker mirrors the ledger into Google Sheets. It consumes
// ledger events from AMQP and periodically rewrites the touched worksheets.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout, log.ComponentWorker)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	setupCtx := log.WithContext(context.Background(), logger)
	res, err := backend.NewFactory(logger).CreateBackend(setupCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if res.Notifier == nil {
		logger.Error("AMQP connection required by the worker could not be established")
		_ = res.Close()
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(setupCtx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", log.FieldSheetsRef, cfg.GoogleSpreadsheetID)

	var invalidator worker.Invalidator
	if res.Cache != nil {
		invalidator = res.Cache
	}
	syncWorker := worker.NewSyncWorker(res.Store, res.Keys, invalidator, sheetsClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})
	ctx = log.WithContext(ctx, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.Notifier.ConsumeLedgerEvents(gctx, syncWorker.HandleLedgerEvent)
	})
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
