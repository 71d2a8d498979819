package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelyaev/cv-match/internal/bootstrap"
	"github.com/abelyaev/cv-match/internal/config"
	"github.com/abelyaev/cv-match/internal/observability/logging"
	"github.com/abelyaev/cv-match/internal/observability/metrics"
)

const serviceName = "ingest"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewIngestMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.IngestMetricsPort,
		Handler: mux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server error", "error", err)
		}
	}()
	defer shutdownMetricsServer(metricsServer, logger)

	logger.Info("ingest run starting", "dataset", cfg.DatasetPath, "batch_size", cfg.IngestBatchSize)

	start := time.Now()
	report, err := app.IngestUC.Run(ctx, cfg.DatasetPath)
	if err != nil {
		m.RecordRun(serviceName, 0, 0, 0, time.Since(start), err)
		logger.Error("ingest run failed", "dataset", cfg.DatasetPath, "error", err)
		app.Close()
		shutdownMetricsServer(metricsServer, logger)
		os.Exit(1)
	}

	m.RecordRun(serviceName, report.Indexed, report.Skipped, report.Batches, report.Duration, nil)
	m.SetVocabularySizes(serviceName, report.Locations, report.ExperienceLevels, report.WorkTypes)

	if !report.EventPublished {
		logger.Warn("vocabulary update event not published, running APIs keep their old snapshot until restart")
	}
	logger.Info("ingest run complete",
		"rows", report.Rows,
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"batches", report.Batches,
		"locations", report.Locations,
		"experience_levels", report.ExperienceLevels,
		"work_types", report.WorkTypes,
		"event_published", report.EventPublished,
		"duration_ms", report.Duration.Milliseconds(),
	)
}

func shutdownMetricsServer(server *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown error", "error", err)
	}
}
