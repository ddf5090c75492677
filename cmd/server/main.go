// Command server runs PixelDrop in a single process: in-memory stores, an
// in-process worker pool and the HTTP API. It needs no external services,
// which makes it the quickest way to try the pipeline locally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/api"
	"github.com/dharsanguruparan/PixelDrop/internal/cdn"
	"github.com/dharsanguruparan/PixelDrop/internal/config"
	"github.com/dharsanguruparan/PixelDrop/internal/logger"
	"github.com/dharsanguruparan/PixelDrop/internal/processing"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

// logPurger stands in for the CDN when no purge endpoint is configured.
type logPurger struct {
	log *zap.Logger
}

func (p logPurger) Purge(_ context.Context, url string) error {
	p.log.Info("cdn purge skipped, no endpoint configured", zap.String("url", url))
	return nil
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs := storage.NewMemoryBlobStore()
	docs := storage.NewMemoryDocumentStore()

	var purger processing.Purger = logPurger{log: log}
	if cfg.CDNPurgeEndpoint != "" {
		purger = cdn.NewClient(cfg.CDNPurgeEndpoint, cfg.CDNAPIKey, cfg.CDNTimeout)
	}

	extractor := processing.NewMetadataExtractor(blobs, docs, log)
	pool := processing.NewPool(extractor, cfg.ProcessingPool, log)
	pool.Start(ctx)

	srv := api.New(cfg, api.Dependencies{
		Blobs:    blobs,
		Docs:     docs,
		Enqueuer: pool,
		Deleter:  processing.NewDeleter(blobs, docs, purger, cfg.CDNBaseURL, log),
		Log:      log,
	})
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		stop()
		pool.Wait()
		os.Exit(1)
	}
	pool.Wait()
}
