// Package storage defines the blob and document store contracts the pipeline
// runs against, plus in-memory implementations used by the single-process
// server and by tests.
package storage

import (
	"context"
	"errors"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
)

var (
	// ErrNotFound is returned by every store when the key is absent. Callers
	// compare with errors.Is; implementations wrap their driver error with it.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition rejects a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidUpdate rejects a ready update that carries no metadata.
	ErrInvalidUpdate = errors.New("invalid document update")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("already exists")
)

// BlobStore keeps the raw uploaded bytes keyed by content hash.
type BlobStore interface {
	Write(ctx context.Context, hash string, data []byte, contentType string) error
	Read(ctx context.Context, hash string) ([]byte, error)
	Delete(ctx context.Context, hash string) error
	Exists(ctx context.Context, hash string) (bool, error)
}

// DocumentStore keeps one ImageDocument per hash. Read returns (nil, nil) for
// a missing document; Update and Delete return ErrNotFound.
type DocumentStore interface {
	Read(ctx context.Context, id string) (*model.ImageDocument, error)
	Create(ctx context.Context, doc *model.ImageDocument) (*model.ImageDocument, error)
	Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.ImageDocument, error)
	Delete(ctx context.Context, id string) error
}

// ValidateUpdate checks upd against the current status of a document.
func ValidateUpdate(current model.ImageStatus, upd model.DocumentUpdate) error {
	if !current.CanTransition(upd.Status) {
		return ErrInvalidTransition
	}
	if upd.Status == model.StatusReady && upd.Metadata == nil {
		return ErrInvalidUpdate
	}
	return nil
}
