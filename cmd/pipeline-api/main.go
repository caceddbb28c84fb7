package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-sheet-pipeline/internal/api"
	"go-sheet-pipeline/internal/api/handler"
	"go-sheet-pipeline/internal/config"
	"go-sheet-pipeline/internal/logging"
	"go-sheet-pipeline/internal/pipeline"
	"go-sheet-pipeline/internal/store"
	"go-sheet-pipeline/pkg/router"
	"go-sheet-pipeline/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("PIPELINE_CONFIG"), "path to the YAML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("❌ server stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer logger.Close()

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if n, err := db.FailInterrupted(context.Background()); err != nil {
		return err
	} else if n > 0 {
		slog.Warn("⚠️ marked interrupted runs as failed", "runs", n)
	}

	om := utils.NewOutputManager(cfg.OutputDir)
	if err := om.EnsureOutputDirExists(); err != nil {
		return err
	}

	tracker := pipeline.NewTracker()
	fetcher := pipeline.NewHTTPFetcher(config.Duration(cfg.Fetch.Timeout, 30*time.Second), cfg.Fetch.Retry, cfg.Fetch.Breaker)
	fetcher.OnBreaker = tracker.BreakerChanged
	build := func() *pipeline.Orchestrator {
		return pipeline.NewOrchestrator(fetcher,
			pipeline.WithTracker(tracker),
			pipeline.WithWorkers(cfg.Fetch.Workers),
			pipeline.WithCacheTTL(config.Duration(cfg.CacheTTL, 0)),
		)
	}
	hub := pipeline.NewHub(build)
	runner := pipeline.NewRunner(build(), db, cfg, pipeline.NewResults(0), tracker, cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule != "" && len(cfg.Views) > 0 {
		sched, err := pipeline.NewScheduler(cfg.Schedule, hub, cfg, cfg.ViewNames(), config.Duration(cfg.Fetch.Timeout, 0)*2, cfg.Location())
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	r := router.New()
	api.RegisterRoutes(r, &handler.Handler{
		Store:   db,
		Runner:  runner,
		Hub:     hub,
		Views:   cfg,
		Output:  om,
		BaseCtx: ctx,
	}, tracker.Handler())
	srv := r.Server(cfg.Server.Addr)

	errc := make(chan error, 1)
	go func() {
		slog.Info("🚀 listening", "addr", cfg.Server.Addr, "views", len(cfg.Views))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("🛑 shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout, 15*time.Second))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
