package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/cli"
	"budgetbook/internal/export/google"
	"budgetbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting budgetbook-worker")

	if cfg.AMQPURL == "" {
		logger.Error("Worker requires AMQP_URL to consume expense events")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Worker requires GOOGLE_SPREADSHEET_ID as export destination")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := google.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets export initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient := cli.InitAMQP(logger, cfg)
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(sheetsClient)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExpenseEvents(ctx, exportWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
