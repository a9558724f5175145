package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/ozlabs/forge/internal/models"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) ListByUser(ctx context.Context, userID string) ([]models.Job, error) {
	args := m.Called(ctx, userID)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) ClaimNext(ctx context.Context) (*models.Job, error) {
	args := m.Called(ctx)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) MarkProcessing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) UpdateProgress(ctx context.Context, id string, progress int) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *JobRepoMock) MarkCompleted(ctx context.Context, id string, output datatypes.JSON, creditsCharged int) error {
	args := m.Called(ctx, id, output, creditsCharged)
	return args.Error(0)
}

func (m *JobRepoMock) MarkFailed(ctx context.Context, id string, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobRepoMock) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, olderThan)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}
