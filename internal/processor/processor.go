package processor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/metrics"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// Processor drives a claimed job through its terminal state. The
// reservation was already debited when the job was created; failure
// refunds it, success leaves it as the charge. The refund references
// the job ID so the books reconcile per job.
type Processor struct {
	repo     job.JobRepoInterface
	credits  credits.Service
	registry Registry
	fallback HandlerFunc
	log      *logger.Logger
}

func New(repo job.JobRepoInterface, creditSvc credits.Service, registry Registry, fallback HandlerFunc, log *logger.Logger) *Processor {
	return &Processor{
		repo:     repo,
		credits:  creditSvc,
		registry: registry,
		fallback: fallback,
		log:      log,
	}
}

// Process runs one job to completion or failure. It never returns an
// error: every outcome is recorded on the job row and the ledger.
func (p *Processor) Process(ctx context.Context, j *models.Job) {
	start := time.Now()
	log := p.log.With("job_id", j.ID, "user_id", j.UserID, "type", j.Type)
	log.Info("job started", "credits_reserved", j.CreditsReserved)

	if err := p.repo.MarkProcessing(ctx, j.ID); err != nil {
		log.Error("mark processing failed", "error", err.Error())
		return
	}

	handler, ok := p.registry[config.JobType(j.Type)]
	if !ok {
		log.Warn("no handler registered, using fallback")
		handler = p.fallback
	}

	output, err := handler(ctx, j)
	if err != nil {
		p.fail(ctx, j, err, log)
		metrics.JobsProcessed.WithLabelValues(j.Type, string(config.JobStatusFailed)).Inc()
		metrics.JobDuration.WithLabelValues(j.Type).Observe(time.Since(start).Seconds())
		return
	}

	raw, err := json.Marshal(output)
	if err != nil {
		p.fail(ctx, j, err, log)
		metrics.JobsProcessed.WithLabelValues(j.Type, string(config.JobStatusFailed)).Inc()
		return
	}

	if err := p.repo.MarkCompleted(ctx, j.ID, datatypes.JSON(raw), j.CreditsReserved); err != nil {
		log.Error("mark completed failed", "error", err.Error())
		return
	}

	metrics.JobsProcessed.WithLabelValues(j.Type, string(config.JobStatusCompleted)).Inc()
	metrics.JobDuration.WithLabelValues(j.Type).Observe(time.Since(start).Seconds())
	log.Info("job completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"credits_charged", j.CreditsReserved,
	)
}

func (p *Processor) fail(ctx context.Context, j *models.Job, cause error, log *logger.Logger) {
	log.Error("job failed", "error", cause.Error())

	if err := p.repo.MarkFailed(ctx, j.ID, userFacingMessage(cause)); err != nil {
		// Someone else settled the job first, or the update itself
		// broke. Either way the reservation must not be refunded here.
		log.Error("mark failed errored", "error", err.Error())
		return
	}
	if j.CreditsReserved > 0 {
		if _, err := p.credits.Refund(ctx, j.UserID, j.CreditsReserved, j.ID); err != nil {
			log.Error("refund after failure errored", "error", err.Error())
		}
	}
}

// userFacingMessage keeps internal detail out of the error message
// clients poll for.
func userFacingMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage
	}
	return "Job processing failed, your credits have been refunded"
}
