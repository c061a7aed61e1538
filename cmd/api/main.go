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

	"github.com/gin-gonic/gin"

	"edusync/internal/api"
	"edusync/internal/config"
	"edusync/internal/logging"
	"edusync/internal/metrics"
	"edusync/internal/school"
	"edusync/internal/store"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if redisClient != nil && !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable, rate limiting fails open", "addr", cfg.RedisAddr)
	}

	svc := school.NewService(db, school.NewRepository(), school.NewRandomSelector())
	if cfg.SeedOnStartup {
		seeded, err := svc.EnsureSeeded(ctx)
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("sample data seeded")
		}
	}

	r := api.NewRouter(api.Deps{
		Config:  cfg,
		Service: svc,
		DB:      db,
		Redis:   redisClient,
		Metrics: metrics.New(),
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "driver", db.Driver(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}
