// Package repository is the DocumentStore backed by PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
	"github.com/dharsanguruparan/PixelDrop/internal/storage"
)

const imageColumns = `id, url, status, size, content_type, width, height, exif, ttl, created_at`

// ImageRepository wraps all SQL used by the API and the worker.
type ImageRepository struct {
	pool *pgxpool.Pool
}

var _ storage.DocumentStore = (*ImageRepository)(nil)

// NewImageRepository constructs a repository.
func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

// Read returns the document for id, or nil when there is none.
func (r *ImageRepository) Read(ctx context.Context, id string) (*model.ImageDocument, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id=$1`, id)
	doc, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select image: %w", err)
	}
	return doc, nil
}

// Create inserts a new document. A duplicate id wraps storage.ErrExists.
func (r *ImageRepository) Create(ctx context.Context, doc *model.ImageDocument) (*model.ImageDocument, error) {
	exif, err := encodeExif(doc.Exif)
	if err != nil {
		return nil, err
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO images (id, url, status, size, content_type, width, height, exif, ttl, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING `+imageColumns,
		doc.ID, doc.URL, doc.Status, doc.Size, doc.ContentType, doc.Width, doc.Height, exif, doc.TTL, createdAt)
	out, err := scanImage(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("insert image %s: %w", doc.ID, storage.ErrExists)
		}
		return nil, fmt.Errorf("insert image: %w", err)
	}
	return out, nil
}

// Update applies upd inside a transaction. The row is locked while the
// status transition is checked so two workers cannot both finish a document.
func (r *ImageRepository) Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.ImageDocument, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current model.ImageStatus
	err = tx.QueryRow(ctx, `SELECT status FROM images WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("lock image: %w", err)
	}
	if err := storage.ValidateUpdate(current, upd); err != nil {
		return nil, fmt.Errorf("image %s %s -> %s: %w", id, current, upd.Status, err)
	}

	var width, height *int
	var exif []byte
	if upd.Metadata != nil {
		width, height = &upd.Metadata.Width, &upd.Metadata.Height
		if exif, err = encodeExif(upd.Metadata.Exif); err != nil {
			return nil, err
		}
	}
	row := tx.QueryRow(ctx, `
		UPDATE images
		SET status=$1,
			width = COALESCE($2, width),
			height = COALESCE($3, height),
			exif = COALESCE($4, exif),
			updated_at=$5
		WHERE id=$6
		RETURNING `+imageColumns,
		upd.Status, width, height, exif, time.Now().UTC(), id)
	doc, err := scanImage(row)
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

// Delete removes the document. Zero affected rows wraps storage.ErrNotFound.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("image %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanImage(row pgx.Row) (*model.ImageDocument, error) {
	var (
		doc  model.ImageDocument
		exif []byte
	)
	err := row.Scan(&doc.ID, &doc.URL, &doc.Status, &doc.Size, &doc.ContentType,
		&doc.Width, &doc.Height, &exif, &doc.TTL, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if doc.Exif, err = decodeExif(exif); err != nil {
		return nil, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return &doc, nil
}

// encodeExif returns nil for a nil record so the column stays NULL.
func encodeExif(data *model.ExifData) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode exif: %w", err)
	}
	return b, nil
}

func decodeExif(raw []byte) (*model.ExifData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var data model.ExifData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}
	return &data, nil
}
