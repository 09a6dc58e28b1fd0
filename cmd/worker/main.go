package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"imagecompare/internal/bootstrap"
	"imagecompare/internal/cache"
	"imagecompare/internal/config"
	"imagecompare/internal/events"
	"imagecompare/internal/log"
	"imagecompare/internal/queue"
	"imagecompare/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	stores, err := bootstrap.OpenStores(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer stores.Close()

	catalog, err := bootstrap.OpenCatalog(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open image catalog")
	}

	services, err := bootstrap.NewServices(cfg, stores, catalog.Source, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init services")
	}

	processor := tasks.NewProcessor(
		services.Generation,
		events.NewPublisher(client, cfg.Redis.ProgressPrefix),
		logger,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Redis.ClaimInterval,
		logger,
		processor,
	).WithMaxDeliveries(cfg.Redis.MaxDeliveries)

	logger.Info().Str("stream", cfg.Redis.Stream).Str("consumer", cfg.Redis.Consumer).Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("worker exited cleanly")
}
