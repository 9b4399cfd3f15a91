package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cp-performance/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cp-performance/internal/adapter/kafka"
	"github.com/couchcryptid/cp-performance/internal/adapter/sqlite"
	"github.com/couchcryptid/cp-performance/internal/config"
	"github.com/couchcryptid/cp-performance/internal/observability"
	"github.com/couchcryptid/cp-performance/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.Tolerances(), logger, metrics)

	// Report archive (optional via REPORT_DB_PATH).
	var (
		store   *sqlite.Store
		loader  pipeline.BatchLoader = writer
		archive httpadapter.Archive
	)
	if cfg.ReportDBPath != "" {
		store, err = sqlite.Open(cfg.ReportDBPath)
		if err != nil {
			logger.Error("failed to open report archive", "path", cfg.ReportDBPath, "error", err)
			os.Exit(1)
		}
		loader = pipeline.NewArchivingLoader(writer, store, logger, metrics)
		archive = store
		logger.Info("report archive enabled", "path", cfg.ReportDBPath)
	} else {
		logger.Info("report archive disabled")
	}

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, archive, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("report archive close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
