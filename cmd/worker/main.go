// The worker command runs the thumbnail worker pool against a shared
// Redis queue, separately from the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vaultfs/filevault/pkg/filevault"
	"github.com/vaultfs/filevault/pkg/filevault/config"
	"github.com/vaultfs/filevault/pkg/filevault/thumbnail"
)

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.RedisURL == "" {
		logger.Error("REDIS_URL is required: a standalone worker needs a shared queue")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cfg.Build(ctx, logger)
	if err != nil {
		logger.Error("failed to build dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	worker, err := thumbnail.New(thumbnail.Config{
		Repository: deps.Repository,
		BlobStore:  deps.BlobStore,
		Queue:      deps.Queue,
		EventSink:  filevault.NewLogEventSink(logger),
		Logger:     logger,
		Workers:    cfg.Workers,
	})
	if err != nil {
		logger.Error("failed to build worker", "error", err)
		os.Exit(1)
	}

	logger.Info("thumbnail worker starting", "workers", cfg.Workers)
	worker.Run(ctx)
	logger.Info("worker exiting")
}
