// Command worker consumes metadata jobs from asynq or Kafka and runs the
// extraction pipeline against PostgreSQL and MinIO.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/config"
	"github.com/dharsanguruparan/PixelDrop/internal/database"
	"github.com/dharsanguruparan/PixelDrop/internal/kafka"
	"github.com/dharsanguruparan/PixelDrop/internal/logger"
	"github.com/dharsanguruparan/PixelDrop/internal/processing"
	"github.com/dharsanguruparan/PixelDrop/internal/repository"
	"github.com/dharsanguruparan/PixelDrop/internal/s3storage"
	"github.com/dharsanguruparan/PixelDrop/internal/worker"
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
		log.Error("worker stopped", zap.Error(err))
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

	extractor := processing.NewMetadataExtractor(blobs, docs, log)

	if cfg.QueueDriver == config.QueueKafka {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer consumer.Close()
		log.Info("consuming metadata jobs", zap.String("driver", "kafka"), zap.String("topic", cfg.KafkaTopic))
		return consumer.Run(ctx, extractor)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.ProcessingPool,
		Logger:      log.Sugar(),
	})
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	log.Info("consuming metadata jobs", zap.String("driver", "asynq"), zap.Int("concurrency", cfg.ProcessingPool))
	return server.Run(worker.NewProcessor(extractor, log).Handler())
}
