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

	"github.com/AngeberMerkel1/KarteikartenBot/internal/api"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/infrastructure/cache"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/infrastructure/config"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/infrastructure/logging"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/service"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"

	_ "github.com/AngeberMerkel1/KarteikartenBot/docs" // generated swagger docs
)

// @title           KarteikartenBot API
// @version         1.0
// @description     Adaptive flashcard trainer: import chapters of questions, practise them and let the scheduler favour what you do not know yet.

// @host      localhost:8080
// @BasePath  /

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		bootLogger.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ── Dependencies ────────────────────────────────────────────────
	driver, err := store.ParseDriver(cfg.DBDriver)
	if err != nil {
		logger.Error("invalid database driver", "error", err)
		os.Exit(1)
	}
	db, err := store.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "driver", driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	imp := importer.New(db, logger)
	if cfg.SeedDir != "" {
		if _, err := imp.LoadSeedDir(ctx, cfg.SeedDir, cfg.SeedWorkers); err != nil {
			logger.Error("failed to load seed directory", "dir", cfg.SeedDir, "error", err)
			os.Exit(1)
		}
	}

	var states service.StateStore = service.NewMemoryStates(cfg.SessionTTL)
	if cfg.CacheURL != "" {
		redisStates, err := cache.New(ctx, cfg.CacheURL, cfg.SessionTTL)
		if err != nil {
			logger.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer redisStates.Close()
		states = redisStates
		logger.Info("session state stored in cache", "ttl", cfg.SessionTTL)
	}

	sessions := service.NewSessionService(db, imp, states, logger, service.WithIdleTimeout(cfg.SessionTTL))
	evictCtx, stopEviction := context.WithCancel(context.Background())
	defer stopEviction()
	go sessions.RunEviction(evictCtx, time.Minute)
	handler := api.NewHandler(db, sessions, logger)

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		stopEviction()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress, "driver", driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
