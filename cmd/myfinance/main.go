package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinance/internal/amqp"
	"myfinance/internal/cli"
	apphttp "myfinance/internal/http"
	"myfinance/internal/ledger"
	"myfinance/internal/log"
	"myfinance/internal/middleware/security"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	// logger comes up before config so validation failures are logged
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.OpenBlobStore(ctx, logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close blob store", log.FieldError, err)
		}
	}()

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithReverseBudgetsOnAccountDelete(cfg.ReverseBudgetsOnAccountDelete),
	}

	// Event publishing is optional; the API keeps working without a broker.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events will not be published",
				log.FieldError, err,
				"exchange", cfg.AMQPExchange)
		} else {
			defer amqpClient.Close()
			opts = append(opts, ledger.WithPublisher(amqpClient.WithLogger(logger)))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	session, err := ledger.Open(ctx, res.Store, cli.UserFromConfig(cfg), opts...)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldUserID, cfg.UserID)
		return 1
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Session:            session,
		Logger:             logger,
		Ready:              res.Ready,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DashboardCacheTTL:  cfg.DashboardCacheTTL,
		TrustedProxies:     security.DefaultTrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting myfinance server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldUserID, cfg.UserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		exitCode = 1
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := session.Close(closeCtx); err != nil {
		logger.Error("Failed to flush ledger on shutdown", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		exitCode = 1
	}

	logger.Info("Server stopped gracefully")
	return exitCode
}
