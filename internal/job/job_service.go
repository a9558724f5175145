package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/dto"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
)

type JobService struct {
	repo    JobRepoInterface
	credits credits.Service
	log     *logger.Logger
}

func NewJobService(repo JobRepoInterface, credits credits.Service, log *logger.Logger) *JobService {
	return &JobService{repo: repo, credits: credits, log: log}
}

var _ JobServiceInterface = (*JobService)(nil)

// CreateJob validates the request, debits the credits the job will
// cost, and enqueues it as pending. The debit is the job's charge
// entry; a failed job refunds it so failure never leaves a net debit.
func (s *JobService) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	jobType := config.JobType(req.Type)
	if !slices.Contains(config.AllowedJobTypes, jobType) {
		return nil, common.NewValidationError(map[string][]string{
			"type": {fmt.Sprintf("unsupported job type %q", req.Type)},
		})
	}

	required, err := requiredCredits(jobType, req.InputData)
	if err != nil {
		return nil, err
	}

	balance, err := s.credits.Balance(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	if balance < required {
		return nil, common.NewInsufficientCreditsError(required, balance)
	}

	// The ID is assigned here, before the insert, so the reservation
	// debit can reference the job it pays for.
	job := &models.Job{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Type:            string(jobType),
		InputData:       datatypes.JSON(req.InputData),
		Status:          string(config.JobStatusPending),
		CreditsReserved: required,
	}

	if _, err := s.credits.Charge(ctx, req.UserID, required, job.ID); err != nil {
		return nil, fmt.Errorf("reserve credits: %w", err)
	}

	if err := s.repo.Create(ctx, job); err != nil {
		// The job row never existed, so the debit must be undone.
		if _, rerr := s.credits.Refund(ctx, req.UserID, required, job.ID); rerr != nil {
			s.log.Error("refund after failed job insert errored",
				"job_id", job.ID,
				"user_id", req.UserID,
				"error", rerr.Error(),
			)
		}
		return nil, err
	}

	s.log.Info("job created",
		"job_id", job.ID,
		"user_id", job.UserID,
		"type", job.Type,
		"credits_reserved", required,
	)
	return toResponseDTO(job), nil
}

func (s *JobService) GetJobByID(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewNotFoundError("job")
		}
		return nil, err
	}
	return toResponseDTO(job), nil
}

func (s *JobService) ListJobsByUser(ctx context.Context, userID string) ([]dto.JobResponseDTO, error) {
	jobs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.JobResponseDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, *toResponseDTO(&jobs[i]))
	}
	return out, nil
}

func toResponseDTO(job *models.Job) *dto.JobResponseDTO {
	return &dto.JobResponseDTO{
		ID:              job.ID,
		UserID:          job.UserID,
		Type:            job.Type,
		InputData:       json.RawMessage(job.InputData),
		Status:          job.Status,
		Progress:        job.Progress,
		OutputData:      json.RawMessage(job.OutputData),
		ErrorMessage:    job.ErrorMessage,
		CreditsReserved: job.CreditsReserved,
		CreditsCharged:  job.CreditsCharged,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
