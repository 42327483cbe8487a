package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/backend"
	"finanzas/internal/cli"
	"finanzas/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting finanzas-worker")

	if !cfg.SheetsConfigured() {
		logger.Error("Mirror worker needs GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// the worker always reads the sqlite primary, whatever the web app uses
	backendCfg.Type = backend.SQLiteBackend

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	factory := backend.NewFactory(logger)
	primary, err := factory.CreateBackend(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to open primary store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	mirror, err := factory.CreateMirror(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to open Google Sheets mirror", "error", err)
		_ = primary.Close()
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			_ = primary.Close()
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic resync", "interval", cfg.SyncInterval)
	}

	mw := worker.NewMirrorWorker(primary.Store, mirror)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := primary.Close(); err != nil {
			logger.Warn("Primary store close error", "error", err)
		}
	})

	// catch up on anything missed while the worker was down
	if err := mw.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mw.Run(gctx, cfg.SyncInterval)
		return nil
	})
	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.Consume(gctx, mw.HandleCollectionChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
