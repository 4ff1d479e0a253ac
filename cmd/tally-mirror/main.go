package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/docstore/sqlite"
	applog "tally/internal/log"
	"tally/internal/worker"
)

func main() {
	logger, cfg, err := cli.Bootstrap(applog.ComponentMirror)
	if err != nil {
		logger.Error("Startup failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting tally-mirror")
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	replica, err := sqlite.New(cfg.MirrorDBPath)
	if err != nil {
		logger.Error("Failed to initialize replica store",
			applog.FieldError, err, "path", cfg.MirrorDBPath)
		os.Exit(1)
	}
	defer replica.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirror := worker.NewMirror(replica)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeRecordChanges(ctx, func(msg *amqp.RecordChangeMessage) error {
			return mirror.HandleChange(ctx, msg)
		})
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		// Give the in-flight delivery a moment to finish
		select {
		case <-consumeErr:
		case <-time.After(5 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	}
	logger.Info("Mirror worker stopped")
}
