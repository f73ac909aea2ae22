package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/vytor/flashmind/internal/api"
	"github.com/vytor/flashmind/internal/config"
	"github.com/vytor/flashmind/internal/db"
	"github.com/vytor/flashmind/internal/jobs"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/repository/sqlite"
	"github.com/vytor/flashmind/internal/services"
	"github.com/vytor/flashmind/internal/worker"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = time.Minute

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(cfg.LogColors),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FlashMind Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("due_poll_interval=%s", cfg.DuePollInterval)
	log.Debug("countdown_interval=%s", cfg.CountdownInterval)
	log.Debug("session_ttl=%s", cfg.SessionTTL)
	log.Debug("worker_count=%d", cfg.WorkerCount)
	log.Debug("queue_size=%d", cfg.QueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	decks := sqlite.NewDeckRepository(database.DB)
	cards := sqlite.NewCardRepository(database.DB)
	settingsRepo := sqlite.NewSettingsRepository(database.DB)
	history := sqlite.NewReviewHistoryRepository(database.DB)

	settingsService := services.NewSettingsService(settingsRepo)
	studyService := services.NewStudyService(decks, cards, settingsRepo, history, services.StudyOptions{
		SessionTTL:        cfg.SessionTTL,
		CountdownInterval: cfg.CountdownInterval,
	})

	srv := &api.Server{
		DB:              database,
		DeckService:     services.NewDeckService(decks, cards),
		SettingsService: settingsService,
		StudyService:    studyService,
		BackupService:   services.NewBackupService(decks, cards, settingsService),
		RequestTimeout:  30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueSize)
	pool.Start(ctx)
	queue := jobs.NewWorkerQueue(pool, studyService)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, t := range queue.Tickers(cfg.DuePollInterval, sweepInterval) {
		t := t
		g.Go(func() error { return t.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Debug("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()

	log.Debug("stopping worker pool")
	pool.Stop()

	log.Info("===========================================")
	log.Info("FlashMind Server Stopped")
	log.Info("===========================================")
	return err
}
