package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"imagecompare/internal/bootstrap"
	"imagecompare/internal/cache"
	"imagecompare/internal/config"
	"imagecompare/internal/events"
	"imagecompare/internal/handlers"
	"imagecompare/internal/jobs"
	"imagecompare/internal/log"
	"imagecompare/internal/queue"
	"imagecompare/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx := context.Background()

	stores, err := bootstrap.OpenStores(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
	}

	catalog, err := bootstrap.OpenCatalog(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.Catalog.Source).Msg("failed to open image catalog")
	}

	services, err := bootstrap.NewServices(cfg, stores, catalog.Source, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init services")
	}

	deps := handlers.Deps{
		Users:       services.Users,
		Comparisons: services.Comparisons,
		Generation:  services.Generation,
		Votes:       services.Votes,
		Admins:      services.Admins,
		Images:      catalog.Images,
		DB:          stores,
	}

	// Without redis the api still serves everything except queued generation.
	var scheduler *jobs.Scheduler
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, generation jobs disabled")
	} else {
		producer := queue.NewProducer(redisClient, cfg.Redis.Stream)
		deps.Jobs = producer
		progress := events.NewPublisher(redisClient, cfg.Redis.ProgressPrefix)
		deps.Progress = progress
		deps.Cache = redisClient

		scheduler = jobs.NewScheduler(producer, progress, cfg.Jobs.RegenerateSchedule, cfg.Jobs.SystemAdminID, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, deps)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, stores, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, stores *bootstrap.Stores, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	stores.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
