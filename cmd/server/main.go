package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grue/internal/config"
	"grue/internal/handler"
	"grue/internal/repository"
	"grue/internal/service"
	"grue/internal/sweeper"
	"grue/pkg/logger"

	"github.com/gorilla/handlers"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// no .env is fine; real env vars still apply
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	logger.Init(cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}

	repo := repository.NewRepo(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	// Redis optional
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis ping failed, resolve cache disabled")
			rdb = nil
		} else {
			logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
		}
	}

	svc := service.NewService(repo, rdb, cfg.Domain)
	sw := sweeper.New(repo, cfg.SweepAt)
	h := handler.NewHandler(svc, sw)

	r := h.Routes()

	// CORS
	allowed := handlers.AllowedOrigins([]string{"*"})
	allowedHeaders := handlers.AllowedHeaders([]string{"Content-Type"})
	allowedMethods := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handlers.CORS(allowed, allowedHeaders, allowedMethods)(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// in-process fallback for the external clean-database scheduler
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sw.Poll(sweepCtx, time.Minute)

	// graceful shutdown
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("domain", cfg.Domain).Str("sweep_at", cfg.SweepAt.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown")
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	logger.Info().Msg("server gracefully stopped")
}
