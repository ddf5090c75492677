// Package model contains the value types shared by the metadata pipeline, the
// stores and the HTTP layer.
package model

import (
	"time"
)

// ImageStatus describes the processing lifecycle of an uploaded image.
type ImageStatus string

const (
	StatusProcessing ImageStatus = "processing"
	StatusReady      ImageStatus = "ready"
	StatusFailed     ImageStatus = "failed"
)

// Terminal reports whether no further status change is allowed.
func (s ImageStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CanTransition reports whether a document in status s may move to next.
// Only processing -> ready and processing -> failed are valid.
func (s ImageStatus) CanTransition(next ImageStatus) bool {
	return s == StatusProcessing && next.Terminal()
}

// ImageDocument is the metadata record kept for every uploaded image. ID is the
// content hash, which also keys the blob and the public CDN path.
type ImageDocument struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Status      ImageStatus `json:"status"`
	Size        int64       `json:"size"`
	ContentType string      `json:"contentType"`
	Width       *int        `json:"width"`
	Height      *int        `json:"height"`
	Exif        *ExifData   `json:"exif"`
	CreatedAt   time.Time   `json:"createdAt"`
	// TTL is the record lifetime in seconds; -1 keeps it forever.
	TTL int `json:"ttl"`
}

// ExifData holds the EXIF fields the pipeline consumes. Each field may be nil
// on its own, but an ExifData with all three nil is never produced.
type ExifData struct {
	Created  *string   `json:"created"`
	Location *Location `json:"location"`
	Camera   *string   `json:"camera"`
}

// Location is a decimal GPS coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MetadataResult bundles one extraction run.
type MetadataResult struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Exif   *ExifData `json:"exif"`
}

// DocumentUpdate is the partial write applied to an ImageDocument when it
// leaves the processing state. Metadata is required for StatusReady.
type DocumentUpdate struct {
	Status   ImageStatus
	Metadata *MetadataResult
}

// Apply copies the update onto doc.
func (u DocumentUpdate) Apply(doc *ImageDocument) {
	doc.Status = u.Status
	if u.Metadata == nil {
		return
	}
	w, h := u.Metadata.Width, u.Metadata.Height
	doc.Width = &w
	doc.Height = &h
	doc.Exif = u.Metadata.Exif
}

// DeleteResult is the outcome of one delete run, mapped onto an HTTP status.
type DeleteResult struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}
