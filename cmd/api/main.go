// Command api serves the PixelDrop HTTP API against PostgreSQL, MinIO and
// Redis, and hands metadata jobs to asynq or Kafka.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/api"
	"github.com/dharsanguruparan/PixelDrop/internal/cache"
	"github.com/dharsanguruparan/PixelDrop/internal/cdn"
	"github.com/dharsanguruparan/PixelDrop/internal/config"
	"github.com/dharsanguruparan/PixelDrop/internal/database"
	"github.com/dharsanguruparan/PixelDrop/internal/kafka"
	"github.com/dharsanguruparan/PixelDrop/internal/logger"
	"github.com/dharsanguruparan/PixelDrop/internal/processing"
	"github.com/dharsanguruparan/PixelDrop/internal/queue"
	"github.com/dharsanguruparan/PixelDrop/internal/repository"
	"github.com/dharsanguruparan/PixelDrop/internal/s3storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	docs := repository.NewImageRepository(pool)

	blobs, err := s3storage.New(cfg)
	if err != nil {
		return err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		return err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	enqueuer, closeEnqueuer, err := newEnqueuer(cfg)
	if err != nil {
		return err
	}
	defer closeEnqueuer()

	purger := cdn.NewClient(cfg.CDNPurgeEndpoint, cfg.CDNAPIKey, cfg.CDNTimeout)
	srv := api.New(cfg, api.Dependencies{
		Blobs:    blobs,
		Docs:     docs,
		Enqueuer: enqueuer,
		Deleter:  processing.NewDeleter(blobs, docs, purger, cfg.CDNBaseURL, log),
		Statuses: cache.NewStatusCache(redisClient, cfg.StatusCacheTTL),
		Log:      log,
	})
	return srv.Run(ctx)
}

func newEnqueuer(cfg *config.Config) (processing.Enqueuer, func(), error) {
	if cfg.QueueDriver == config.QueueKafka {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}
	c := queue.NewClient(asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
	return c, func() { c.Close() }, nil
}
