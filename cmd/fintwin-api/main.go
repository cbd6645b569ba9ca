package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintwin/internal/api"
	"fintwin/internal/coach"
	"fintwin/internal/config"
	"fintwin/internal/db"
	"fintwin/internal/game"
	"fintwin/internal/recorder"
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
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	content := game.DefaultContent()
	if cfg.ContentFile != "" {
		content, err = game.LoadContent(cfg.ContentFile)
		if err != nil {
			logger.Error("content load failed", "file", cfg.ContentFile, "err", err)
			os.Exit(1)
		}
	}

	sessions, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("session store init failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.HistoryDB != "" {
		rec, err = recorder.NewSQLiteRecorder(cfg.HistoryDB, logger)
		if err != nil {
			logger.Error("history db init failed", "err", err)
			os.Exit(1)
		}
	}
	defer rec.Close()

	opts := []game.ServiceOption{
		game.WithRecorder(rec),
		game.WithSessionClamp(game.ParseClampPolicy(cfg.Clamp)),
	}
	if cfg.Seed != 0 {
		opts = append(opts, game.WithRandFactory(game.SeededRandFactory(cfg.Seed)))
	}
	if cfg.GeminiAPIKey != "" {
		advisor, err := coach.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("gemini advisor init failed", "err", err)
			os.Exit(1)
		}
		defer advisor.Close()
		opts = append(opts, game.WithAdvisor(advisor))
		logger.Info("closing advice enabled", "model", cfg.GeminiModel)
	}
	gameSvc := game.NewService(content, sessions, logger, opts...)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SweepSpec, func() {
		n, err := gameSvc.SweepIdle(ctx, cfg.Store.SessionTTL)
		if err != nil {
			logger.Error("idle sweep failed", "err", err)
			return
		}
		if n > 0 {
			logger.Info("idle sessions removed", "count", n)
		}
	}); err != nil {
		logger.Error("invalid sweep schedule", "spec", cfg.SweepSpec, "err", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := api.New(cfg, logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("fintwin api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// openStore picks Postgres, then Redis, then the in-process store.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (game.SessionStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		pg, err := store.NewPostgres(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("session store", "kind", "postgres")
		return pg, pool.Close, nil
	case cfg.RedisAddr != "":
		rd := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		if err := rd.Ping(ctx); err != nil {
			_ = rd.Close()
			return nil, nil, err
		}
		logger.Info("session store", "kind", "redis", "addr", cfg.RedisAddr)
		return rd, func() { _ = rd.Close() }, nil
	default:
		logger.Info("session store", "kind", "memory")
		return store.NewMemory(), func() {}, nil
	}
}
