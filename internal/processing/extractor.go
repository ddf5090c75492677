// Package processing holds the two orchestrators that drive the metadata
// pipeline against the stores, plus an in-process pool that feeds the
// extractor without an external queue.
package processing

import (
	"context"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/imagemeta"
	"github.com/dharsanguruparan/PixelDrop/internal/model"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

// Enqueuer schedules metadata extraction for an uploaded hash.
type Enqueuer interface {
	Enqueue(ctx context.Context, hash string) error
}

// MetadataExtractor reads an uploaded blob, extracts its dimensions and EXIF
// and records the outcome on the image document.
type MetadataExtractor struct {
	blobs storage.BlobStore
	docs  storage.DocumentStore
	log   *zap.Logger
}

// NewMetadataExtractor wires the extractor to its stores.
func NewMetadataExtractor(blobs storage.BlobStore, docs storage.DocumentStore, log *zap.Logger) *MetadataExtractor {
	return &MetadataExtractor{blobs: blobs, docs: docs, log: log}
}

// Run processes one hash. It never returns an error: every failure ends as a
// failed document, and a failure to write that status is only logged so the
// calling queue is never left retrying.
func (m *MetadataExtractor) Run(ctx context.Context, hash string) {
	if hash == "" {
		m.log.Warn("metadata job without hash ignored")
		return
	}
	log := m.log.With(zap.String("hash", hash))

	data, err := m.blobs.Read(ctx, hash)
	if err != nil {
		m.fail(ctx, log, hash, "read blob", err)
		return
	}
	meta, err := imagemeta.Analyze(data)
	if err != nil {
		m.fail(ctx, log, hash, "probe dimensions", err)
		return
	}
	upd := model.DocumentUpdate{Status: model.StatusReady, Metadata: &meta}
	if _, err := m.docs.Update(ctx, hash, upd); err != nil {
		m.fail(ctx, log, hash, "store metadata", err)
		return
	}
	log.Info("metadata extracted",
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Bool("exif", meta.Exif != nil),
	)
}

// MarkFailed records a failed status for hash without running the pipeline.
func (m *MetadataExtractor) MarkFailed(ctx context.Context, hash string, cause error) {
	m.fail(ctx, m.log.With(zap.String("hash", hash)), hash, "dispatch", cause)
}

func (m *MetadataExtractor) fail(ctx context.Context, log *zap.Logger, hash, stage string, cause error) {
	log.Warn("metadata extraction failed", zap.String("stage", stage), zap.Error(cause))
	if _, err := m.docs.Update(ctx, hash, model.DocumentUpdate{Status: model.StatusFailed}); err != nil {
		log.Error("mark image failed", zap.Error(err))
	}
}
