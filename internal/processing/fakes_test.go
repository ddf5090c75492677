package processing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

func pngPixel(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// blobStub wraps the memory store and fails the calls whose error is set.
type blobStub struct {
	*storage.MemoryBlobStore
	readErr   error
	deleteErr error
}

func newBlobStub() *blobStub {
	return &blobStub{MemoryBlobStore: storage.NewMemoryBlobStore()}
}

func (b *blobStub) Read(ctx context.Context, hash string) ([]byte, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	return b.MemoryBlobStore.Read(ctx, hash)
}

func (b *blobStub) Delete(ctx context.Context, hash string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.MemoryBlobStore.Delete(ctx, hash)
}

// docStub wraps the memory store, records every Update and can fail updates
// per target status.
type docStub struct {
	*storage.MemoryDocumentStore
	mu         sync.Mutex
	updates    []model.DocumentUpdate
	updateErrs map[model.ImageStatus]error
	deleteErr  error
}

func newDocStub() *docStub {
	return &docStub{
		MemoryDocumentStore: storage.NewMemoryDocumentStore(),
		updateErrs:          map[model.ImageStatus]error{},
	}
}

func (d *docStub) Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.ImageDocument, error) {
	d.mu.Lock()
	d.updates = append(d.updates, upd)
	err := d.updateErrs[upd.Status]
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return d.MemoryDocumentStore.Update(ctx, id, upd)
}

func (d *docStub) Delete(ctx context.Context, id string) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	return d.MemoryDocumentStore.Delete(ctx, id)
}

func (d *docStub) updateCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.updates)
}

type purgerFunc func(ctx context.Context, url string) error

func (f purgerFunc) Purge(ctx context.Context, url string) error { return f(ctx, url) }

func seed(t *testing.T, blobs storage.BlobStore, docs storage.DocumentStore, hash string, data []byte) {
	t.Helper()
	ctx := context.Background()
	if data != nil {
		if err := blobs.Write(ctx, hash, data, "image/png"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := docs.Create(ctx, &model.ImageDocument{ID: hash, Status: model.StatusProcessing, TTL: -1}); err != nil {
		t.Fatal(err)
	}
}

func mustRead(t *testing.T, docs storage.DocumentStore, hash string) *model.ImageDocument {
	t.Helper()
	doc, err := docs.Read(context.Background(), hash)
	if err != nil || doc == nil {
		t.Fatalf("Read(%s) = %v, %v", hash, doc, err)
	}
	return doc
}
