package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/cache"
	"github.com/nilesh-agrahari/SecureFileShare/internal/config"
	"github.com/nilesh-agrahari/SecureFileShare/internal/database"
	"github.com/nilesh-agrahari/SecureFileShare/internal/handlers"
	"github.com/nilesh-agrahari/SecureFileShare/internal/jobs"
	"github.com/nilesh-agrahari/SecureFileShare/internal/log"
	"github.com/nilesh-agrahari/SecureFileShare/internal/mailer"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/server"
	"github.com/nilesh-agrahari/SecureFileShare/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	if cfg.Security.SigningSecret == "" || cfg.Security.SessionSecret == "" {
		logger.Fatal().Msg("security.signingsecret and security.sessionsecret must be set")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	var mail mailer.Sender
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTPSender(cfg.Mail)
	} else {
		mail = mailer.NewLogSender(logger)
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, mail, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(repository.NewDocumentRepository(dbPool), objectStore, redisClient, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
	os.Exit(0)
}
