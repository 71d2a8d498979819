package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/abelyaev/cv-match/internal/adapters/http"
	"github.com/abelyaev/cv-match/internal/bootstrap"
	"github.com/abelyaev/cv-match/internal/config"
	"github.com/abelyaev/cv-match/internal/observability/logging"
	"github.com/abelyaev/cv-match/internal/observability/metrics"
)

const serviceName = "api"

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

	if err := app.Vocabulary.Load(ctx); err != nil {
		if !cfg.VocabAllowMissing {
			logger.Error("load vocabulary snapshot", "path", cfg.VocabPath, "error", err)
			os.Exit(1)
		}
		logger.Warn("starting without vocabulary snapshot, location expansion disabled until ingest publishes one",
			"path", cfg.VocabPath, "error", err)
		app.Vocabulary.SetEmpty()
	}

	m := metrics.NewHTTPServerMetrics(serviceName)

	// Reload the snapshot whenever an ingest run announces a new one. A
	// failed reload keeps the previous vocabulary installed.
	go func() {
		err := app.Queue.SubscribeVocabularyUpdated(ctx, func(handlerCtx context.Context) error {
			reloadErr := app.Vocabulary.Reload(handlerCtx)
			m.RecordVocabularyReload(serviceName, reloadErr)
			if reloadErr != nil {
				return reloadErr
			}
			current := app.Vocabulary.Current()
			logger.Info("vocabulary snapshot reloaded",
				"locations", len(current.Locations),
				"experience_levels", len(current.ExperienceLevels),
				"work_types", len(current.WorkTypes),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("vocabulary subscription stopped", "error", err)
		}
	}()

	router := httpadapter.NewRouter(cfg, app.MatchUC, app.Vocabulary, app.Storage, m, logger)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
