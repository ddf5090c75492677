package processing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/cdn"
	"github.com/dharsanguruparan/PixelDrop/internal/model"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

// ErrEmptyHash is returned by Deleter.Run for an empty hash.
var ErrEmptyHash = errors.New("empty hash")

// Purger evicts a public URL from the CDN cache.
type Purger interface {
	Purge(ctx context.Context, url string) error
}

// Deleter removes an image everywhere it lives: blob, document, CDN cache.
type Deleter struct {
	blobs   storage.BlobStore
	docs    storage.DocumentStore
	purger  Purger
	cdnBase string
	log     *zap.Logger
}

// NewDeleter wires the delete orchestrator.
func NewDeleter(blobs storage.BlobStore, docs storage.DocumentStore, purger Purger, cdnBase string, log *zap.Logger) *Deleter {
	return &Deleter{blobs: blobs, docs: docs, purger: purger, cdnBase: cdnBase, log: log}
}

// Run deletes the blob, then the document, then purges the public URL.
//
// A missing blob or document counts as deleted. Any other store error aborts
// and is returned. A purge failure does not abort: the stores are already
// clean, so it becomes a 502 result for the caller to surface.
func (d *Deleter) Run(ctx context.Context, hash string) (model.DeleteResult, error) {
	if hash == "" {
		return model.DeleteResult{}, ErrEmptyHash
	}
	log := d.log.With(zap.String("hash", hash))

	if err := d.blobs.Delete(ctx, hash); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return model.DeleteResult{}, fmt.Errorf("delete blob: %w", err)
		}
		log.Debug("blob already gone")
	}
	if err := d.docs.Delete(ctx, hash); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return model.DeleteResult{}, fmt.Errorf("delete document: %w", err)
		}
		log.Debug("document already gone")
	}

	url := cdn.PublicURL(d.cdnBase, hash)
	if err := d.purger.Purge(ctx, url); err != nil {
		log.Warn("cdn purge failed", zap.String("url", url), zap.Error(err))
		return model.DeleteResult{Status: http.StatusBadGateway, Error: err.Error()}, nil
	}
	log.Info("image deleted")
	return model.DeleteResult{Status: http.StatusNoContent}, nil
}
