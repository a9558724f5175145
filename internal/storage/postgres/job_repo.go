package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/models"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job record. The model hook assigns the UUID
// when the caller left it empty.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a single job record by its ID.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// ListByUser retrieves all jobs belonging to a user, newest first.
func (r *JobRepository) ListByUser(ctx context.Context, userID string) ([]models.Job, error) {
	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ClaimNext picks the oldest pending job and claims it with an
// optimistic status update, so two workers can never process the same
// job. A lost race moves on to the next candidate. Returns (nil, nil)
// when no pending job exists.
func (r *JobRepository) ClaimNext(ctx context.Context) (*models.Job, error) {
	const maxAttempts = 5

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var candidate models.Job
		err := r.db.WithContext(ctx).
			Where("status = ?", string(config.JobStatusPending)).
			Order("created_at").
			First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("claim next job: %w", err)
		}

		res := r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status = ?", candidate.ID, string(config.JobStatusPending)).
			Update("status", string(config.JobStatusProcessing))
		if res.Error != nil {
			return nil, fmt.Errorf("claim next job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Another worker got it between select and update.
			continue
		}

		candidate.Status = string(config.JobStatusProcessing)
		return &candidate, nil
	}
	return nil, nil
}

// MarkProcessing moves a job into the processing state at progress 0.
func (r *JobRepository) MarkProcessing(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   string(config.JobStatusProcessing),
			"progress": 0,
		}).Error; err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return nil
}

// UpdateProgress advances a processing job's progress. The WHERE guard
// keeps progress monotonically non-decreasing even if updates land out
// of order.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ? AND progress <= ?", id, string(config.JobStatusProcessing), progress).
		Update("progress", progress).Error; err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// MarkCompleted records the terminal success state: output data set,
// progress 100, charged amount recorded. The status guard keeps a job
// that already reached a terminal state from being settled twice.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, output datatypes.JSON, creditsCharged int) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusProcessing)).
		Updates(map[string]any{
			"status":          string(config.JobStatusCompleted),
			"progress":        100,
			"output_data":     output,
			"credits_charged": creditsCharged,
		})
	if res.Error != nil {
		return fmt.Errorf("mark completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark completed %s: %w", id, job.ErrNotProcessing)
	}
	return nil
}

// MarkFailed records the terminal failure state with the error message
// shown to polling clients. Guarded the same way as MarkCompleted.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusProcessing)).
		Updates(map[string]any{
			"status":        string(config.JobStatusFailed),
			"error_message": errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("mark failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark failed %s: %w", id, job.ErrNotProcessing)
	}
	return nil
}

// ListStuck returns processing jobs whose last update is older than
// olderThan.
func (r *JobRepository) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	var jobs []models.Job
	cutoff := time.Now().Add(-olderThan)
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(config.JobStatusProcessing), cutoff).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}
