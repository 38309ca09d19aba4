package main

import (
	"context"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	"dompet/internal/log"
	"dompet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting dompet-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notification worker")
		os.Exit(1)
	}

	stores := cli.OpenStore(logger, cfg)
	defer stores.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpClient.SetPrefetch(cfg.NotifyBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
	})

	notifier := worker.NewNotifier(stores)
	if err := notifier.Run(ctx, amqpClient); err != nil {
		logger.Error("Event consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
