package job

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/ozlabs/forge/internal/dto"
	"github.com/ozlabs/forge/internal/models"
)

// ErrNotProcessing reports that a terminal update found the job in a
// state other than processing, typically because it was already
// settled by another actor. Callers must not move credits when they
// see it.
var ErrNotProcessing = errors.New("job is not processing")

// JobRepoInterface defines the contract for job persistence.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	ListByUser(ctx context.Context, userID string) ([]models.Job, error)

	// ClaimNext atomically moves the oldest pending job to processing
	// and returns it, or (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context) (*models.Job, error)

	MarkProcessing(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int) error

	// MarkCompleted and MarkFailed only apply to a processing job and
	// return ErrNotProcessing otherwise, so a terminal job can never be
	// re-settled.
	MarkCompleted(ctx context.Context, id string, output datatypes.JSON, creditsCharged int) error
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// ListStuck returns processing jobs untouched for longer than
	// olderThan; the pool janitor fails them.
	ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error)
}

// JobServiceInterface defines the contract for job business logic.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error)
	GetJobByID(ctx context.Context, id string) (*dto.JobResponseDTO, error)
	ListJobsByUser(ctx context.Context, userID string) ([]dto.JobResponseDTO, error)
}

// JobHandlerInterface defines the contract for HTTP request handlers.
type JobHandlerInterface interface {
	Create(c *gin.Context) (any, error)
	Get(c *gin.Context) (any, error)
	List(c *gin.Context) (any, error)
}
