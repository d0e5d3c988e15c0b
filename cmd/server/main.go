package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lojf/pairsurvey/internal/analysis"
	"github.com/lojf/pairsurvey/internal/config"
	"github.com/lojf/pairsurvey/internal/db"
	"github.com/lojf/pairsurvey/internal/handlers"
	"github.com/lojf/pairsurvey/internal/monitor"
	"github.com/lojf/pairsurvey/internal/services"
	"github.com/lojf/pairsurvey/internal/web"
	"github.com/lojf/pairsurvey/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	conn, err := db.Open(cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	store := db.NewStore(conn)

	ai, err := analysis.NewOpenAIClient(analysis.Options{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		return err
	}

	runner := worker.NewRunner(cfg.PipelineWorkers, log)
	pipeline := services.NewReportPipeline(store, ai, runner, log)
	survey := services.NewSurveyService(store, pipeline, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Enabled {
		monitor.New(store, cfg.Monitor.Interval, cfg.Monitor.Threshold, log).Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.Router(handlers.New(survey, sqlDB.PingContext, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("pairsurvey listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	// Pipelines cut short here leave their sessions FAILED or, if never
	// started, PENDING.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Warn("report pipelines did not finish before shutdown", "error", err)
	}
	return nil
}
