package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintwin/internal/config"
	"fintwin/internal/db"
	"fintwin/internal/store"

	"github.com/robfig/cron/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(""); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	sessions, err := store.NewPostgres(pool)
	if err != nil {
		logger.Error("session store init failed", "err", err)
		os.Exit(1)
	}

	sweep := func() error {
		cutoff := time.Now().UTC().Add(-cfg.Store.SessionTTL)
		n, err := sessions.DeleteIdle(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("idle sweep complete", "deleted", n, "cutoff", cutoff)
		return nil
	}

	if cfg.RunOnce {
		if err := sweep(); err != nil {
			logger.Error("sweep failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSpec, func() {
		if err := sweep(); err != nil {
			logger.Error("sweep failed", "err", err)
		}
	}); err != nil {
		logger.Error("invalid sweep schedule", "spec", cfg.SweepSpec, "err", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("worker started", "schedule", cfg.SweepSpec, "session_ttl", cfg.Store.SessionTTL.String())

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("worker shutdown")
}
