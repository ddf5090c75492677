// Package queue defines the metadata job message and the asynq client that
// schedules it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ImageMetadataTask is scheduled each time an image is uploaded.
	ImageMetadataTask = "image:metadata"
)

// MetadataPayload is the job message: the content hash of the uploaded image.
type MetadataPayload struct {
	Hash string `json:"hash"`
}

// EncodePayload serializes the message for hash.
func EncodePayload(hash string) ([]byte, error) {
	data, err := json.Marshal(MetadataPayload{Hash: hash})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

// DecodePayload extracts the hash from a job message. ok is false for
// malformed JSON or a missing or empty hash; such messages are dropped.
func DecodePayload(data []byte) (hash string, ok bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", false
	}
	field, present := raw["hash"]
	if !present {
		return "", false
	}
	if err := json.Unmarshal(field, &hash); err != nil {
		return "", false
	}
	return hash, hash != ""
}

// NewMetadataTask builds the asynq task for hash. Retries are disabled: the
// extractor records failures on the document itself.
func NewMetadataTask(hash string) (*asynq.Task, error) {
	data, err := EncodePayload(hash)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(ImageMetadataTask, data, asynq.MaxRetry(0)), nil
}

// Client enqueues metadata jobs on asynq.
type Client struct {
	client *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// Enqueue schedules metadata extraction for hash.
func (c *Client) Enqueue(ctx context.Context, hash string) error {
	task, err := NewMetadataTask(hash)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue metadata task: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
