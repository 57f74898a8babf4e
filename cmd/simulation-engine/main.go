package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/interviewace/simulation-engine/internal/api"
	"github.com/interviewace/simulation-engine/internal/catalog"
	"github.com/interviewace/simulation-engine/internal/cleanup"
	"github.com/interviewace/simulation-engine/internal/config"
	"github.com/interviewace/simulation-engine/internal/events"
	"github.com/interviewace/simulation-engine/internal/llm"
	"github.com/interviewace/simulation-engine/internal/session"
	"github.com/interviewace/simulation-engine/internal/simulation"
	"github.com/interviewace/simulation-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Load scenario catalog (builtins plus optional YAML overlay)
	cat := catalog.New()
	if cfg.Scenarios.Dir != "" {
		if err := cat.LoadFromDir(cfg.Scenarios.Dir); err != nil {
			slog.Warn("failed to load scenarios from dir", "dir", cfg.Scenarios.Dir, "error", err)
		}
	}

	// Optional Redis snapshotter for crash recovery
	var snap session.Snapshotter
	var redisSnap *session.RedisSnapshotter
	if cfg.Redis.Address != "" {
		redisSnap, err = session.NewRedisSnapshotter(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SnapshotTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		snap = redisSnap
		slog.Info("redis snapshots enabled", "address", cfg.Redis.Address)
	} else {
		slog.Info("redis snapshots disabled")
	}

	store := session.NewStore(snap)

	// LLM client; no API key means every turn uses the scripted fallback
	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		genCfg := llm.DefaultGenerationConfig()
		genCfg.Model = cfg.LLM.Model
		gemini, err := llm.NewGeminiClient(initCtx, cfg.LLM.APIKey, genCfg)
		if err != nil {
			slog.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		llmClient = gemini
		slog.Info("gemini client ready", "model", genCfg.Model)
	} else {
		slog.Warn("no gemini api key configured, running in fallback mode")
	}

	broadcaster := events.NewBroadcaster()

	// Initialize simulation manager
	manager := simulation.NewManager(cat, store, llmClient, repo, broadcaster, simulation.Config{
		LLMTimeout: cfg.LLM.Timeout,
	})

	// Recover snapshotted sessions from a previous run
	if snap != nil {
		if err := store.Recover(initCtx, manager.ReattachTemplate); err != nil {
			slog.Warn("session recovery failed", "error", err)
		} else {
			slog.Info("session recovery complete", "sessions", store.Len())
		}
	}

	// Initialize eviction worker
	cleaner := cleanup.NewCleaner(manager, cfg.Sessions.IdleTTL, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start eviction worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, cat, broadcaster, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if redisSnap != nil {
		if err := redisSnap.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("simulation-engine stopped")
}
