package worker

import (
	"context"
	"time"

	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/processor"
)

// Worker polls the queue and hands each claimed job to the processor.
// The poll delay doubles while the queue stays empty and resets after
// every processed job.
type Worker struct {
	id        int
	repo      job.JobRepoInterface
	processor *processor.Processor
	baseDelay time.Duration
	log       *logger.Logger
	quit      chan struct{}
}

func New(id int, repo job.JobRepoInterface, proc *processor.Processor, baseDelay time.Duration, log *logger.Logger) *Worker {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Worker{
		id:        id,
		repo:      repo,
		processor: proc,
		baseDelay: baseDelay,
		log:       log.With("worker_id", id),
		quit:      make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		currentDelay := w.baseDelay
		maxDelay := 60 * time.Second

		for {
			claimed, err := w.repo.ClaimNext(ctx)
			if err != nil {
				w.log.Error("claim failed", "error", err.Error())
			}

			if claimed != nil {
				w.processor.Process(ctx, claimed)
				currentDelay = w.baseDelay
			} else {
				currentDelay = min(currentDelay*2, maxDelay)
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) Stop() { close(w.quit) }
