package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryBlobStore is a BlobStore backed by a map. RWMutex lets concurrent
// readers share the lock while writes stay exclusive.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

// NewMemoryBlobStore constructs an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]memoryBlob)}
}

// Write stores a copy of data under hash, replacing any previous blob.
func (m *MemoryBlobStore) Write(_ context.Context, hash string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[hash] = memoryBlob{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Read returns a copy of the blob so callers cannot mutate stored bytes.
func (m *MemoryBlobStore) Read(_ context.Context, hash string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[hash]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", hash, ErrNotFound)
	}
	return append([]byte(nil), b.data...), nil
}

// Delete removes the blob.
func (m *MemoryBlobStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[hash]; !ok {
		return fmt.Errorf("blob %s: %w", hash, ErrNotFound)
	}
	delete(m.blobs, hash)
	return nil
}

// Exists reports whether a blob is stored under hash.
func (m *MemoryBlobStore) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[hash]
	return ok, nil
}

// MemoryDocumentStore is a DocumentStore backed by a map.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*model.ImageDocument
}

// NewMemoryDocumentStore constructs an empty MemoryDocumentStore.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string]*model.ImageDocument)}
}

// Read returns a copy of the document, or nil when there is none.
func (m *MemoryDocumentStore) Read(_ context.Context, id string) (*model.ImageDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

// Create inserts doc. CreatedAt is stamped in UTC when unset.
func (m *MemoryDocumentStore) Create(_ context.Context, doc *model.ImageDocument) (*model.ImageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return nil, fmt.Errorf("document %s: %w", doc.ID, ErrExists)
	}
	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.docs[doc.ID] = &stored
	out := stored
	return &out, nil
}

// Update applies upd if the status transition is allowed.
func (m *MemoryDocumentStore) Update(_ context.Context, id string, upd model.DocumentUpdate) (*model.ImageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err := ValidateUpdate(doc.Status, upd); err != nil {
		return nil, fmt.Errorf("document %s %s -> %s: %w", id, doc.Status, upd.Status, err)
	}
	upd.Apply(doc)
	out := *doc
	return &out, nil
}

// Delete removes the document.
func (m *MemoryDocumentStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	delete(m.docs, id)
	return nil
}
