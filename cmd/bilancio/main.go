package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/charts"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, log.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	closers := []io.Closer{result.Cleanup}

	// Events are optional: the web process keeps serving without a broker.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, record events disabled", "error", err)
		} else {
			publisher = amqpClient
			closers = append(closers, amqpClient)
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(result.Stores, publisher, logger, closers...)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Ledger:         ledger,
		Renderer:       charts.NewRenderer(cfg.CurrencySymbol),
		CurrencySymbol: cfg.CurrencySymbol,
		Ready:          apphttp.ReadyFunc(result.Ready),
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Failed to initialize HTTP server", "error", err)
		_ = ledger.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	})

	logger.Info("Starting bilancio server",
		"port", cfg.Port,
		log.FieldBackend, backendCfg.Type.String(),
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = ledger.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
