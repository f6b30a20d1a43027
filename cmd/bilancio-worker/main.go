package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting bilancio-worker")

	cfg := config.Load()
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	mirrorCfg, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), mirrorCfg)
	if err != nil {
		logger.Error("Failed to initialize mirror backend", "error", err, log.FieldBackend, mirrorCfg.Type.String())
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup.Close(); err != nil {
			logger.Error("Failed to close mirror backend", "error", err)
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(result.Stores, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.RunConsumer(gctx, mirror.HandleRecordAdded)
	})
	if result.Ready != nil {
		g.Go(func() error {
			if err := result.Ready(gctx); err != nil {
				logger.Warn("Mirror backend not reachable yet", "error", err)
			}
			return nil
		})
	}

	logger.Info("Mirror worker running",
		log.FieldBackend, mirrorCfg.Type.String(),
		"queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker stopped gracefully")
}
