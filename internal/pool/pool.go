package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/processor"
	"github.com/ozlabs/forge/internal/worker"
)

// WorkerPool runs a fixed set of workers plus a janitor that fails
// jobs stuck in processing and refunds their reservations. Jobs are
// never re-queued: a stuck job is a failed job.
type WorkerPool struct {
	workers    []*worker.Worker
	repo       job.JobRepoInterface
	credits    credits.Service
	stuckAfter time.Duration
	log        *logger.Logger
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(count int, repo job.JobRepoInterface, creditSvc credits.Service, proc *processor.Processor, baseDelay, stuckAfter time.Duration, log *logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	if stuckAfter <= 0 {
		stuckAfter = 10 * time.Minute
	}
	p := &WorkerPool{
		repo:       repo,
		credits:    creditSvc,
		stuckAfter: stuckAfter,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 1; i <= count; i++ {
		p.workers = append(p.workers, worker.New(i, repo, proc, baseDelay, log))
	}
	return p
}

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()
	p.log.Info("worker pool started", "workers", len(p.workers))
}

func (p *WorkerPool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.failStuckJobs()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) failStuckJobs() {
	stuck, err := p.repo.ListStuck(p.ctx, p.stuckAfter)
	if err != nil {
		p.log.Error("stuck job scan failed", "error", err.Error())
		return
	}

	for _, j := range stuck {
		p.log.Warn("failing stuck job", "job_id", j.ID, "user_id", j.UserID, "type", j.Type)
		if err := p.repo.MarkFailed(p.ctx, j.ID, "Job timed out, your credits have been refunded"); err != nil {
			p.log.Error("failing stuck job errored", "job_id", j.ID, "error", err.Error())
			continue
		}
		if j.CreditsReserved > 0 {
			if _, err := p.credits.Refund(p.ctx, j.UserID, j.CreditsReserved, j.ID); err != nil {
				p.log.Error("stuck job refund errored", "job_id", j.ID, "error", err.Error())
			}
		}
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}
