// Package worker runs metadata jobs delivered by asynq.
package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/PixelDrop/internal/queue"
)

// Runner processes one hash and records the outcome itself.
type Runner interface {
	Run(ctx context.Context, hash string)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	runner Runner
	log    *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(runner Runner, log *zap.Logger) *Processor {
	return &Processor{runner: runner, log: log}
}

// Handler registers the metadata job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ImageMetadataTask, p.handleMetadata)
	return mux
}

// handleMetadata always returns nil: malformed messages are dropped and
// extraction failures already live on the document, so asynq has nothing to
// retry.
func (p *Processor) handleMetadata(ctx context.Context, task *asynq.Task) error {
	hash, ok := queue.DecodePayload(task.Payload())
	if !ok {
		p.log.Warn("dropping malformed metadata job", zap.ByteString("payload", task.Payload()))
		return nil
	}
	p.runner.Run(ctx, hash)
	return nil
}
