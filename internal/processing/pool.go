package processing

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Pool.Enqueue when the buffer is full.
var ErrQueueFull = errors.New("processing queue full")

// Pool runs MetadataExtractor jobs on a fixed set of goroutines. It stands in
// for the external queue when everything runs in one process.
type Pool struct {
	extractor *MetadataExtractor
	queue     chan string
	workers   int
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewPool builds a Pool with queue capacity tied to worker count.
func NewPool(extractor *MetadataExtractor, workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		extractor: extractor,
		queue:     make(chan string, workers*4),
		workers:   workers,
		log:       log,
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Enqueue hands hash to a worker without blocking. When the buffer is full the
// job is dropped and the document marked failed, so the API reflects reality.
func (p *Pool) Enqueue(ctx context.Context, hash string) error {
	select {
	case p.queue <- hash:
		return nil
	default:
		p.log.Warn("processing queue full, dropping job", zap.String("hash", hash))
		p.extractor.MarkFailed(ctx, hash, ErrQueueFull)
		return ErrQueueFull
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case hash := <-p.queue:
			p.extractor.Run(ctx, hash)
		}
	}
}
