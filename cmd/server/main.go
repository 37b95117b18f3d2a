package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultfs/filevault/pkg/filevault"
	"github.com/vaultfs/filevault/pkg/filevault/api"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cfg.Build(ctx, logger)
	if err != nil {
		logger.Error("failed to build dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	svc, err := filevault.New(
		filevault.WithRepository(deps.Repository),
		filevault.WithBlobStore(deps.BlobStore),
		filevault.WithSessions(filevault.NewSessionStore(deps.KV, cfg.SessionTTL)),
		filevault.WithQueue(deps.Queue),
		filevault.WithEventSink(filevault.NewLogEventSink(logger)),
		filevault.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

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

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	handler := api.NewHandler(svc, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler.Routes(),
	}

	go func() {
		logger.Info("filevault server starting", "port", cfg.Port, "workers", cfg.Workers)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	<-workerDone
	logger.Info("server exiting")
}
