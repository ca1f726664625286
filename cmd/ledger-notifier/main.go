package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinance/internal/amqp"
	"myfinance/internal/cli"
	"myfinance/internal/log"
	"myfinance/internal/worker"
)

const summaryInterval = 15 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentNotifier)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	logger.Info("Starting ledger-notifier", "queue", cfg.AMQPQueue)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpClient.WithLogger(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	alerts := worker.NewAlertWorker(worker.NewLogNotifier(logger), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, alerts.HandleLedgerEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(summaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				alerts.LogSummary(gctx)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notifier stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	alerts.LogSummary(context.Background())
	logger.Info("Notifier stopped gracefully")
}
