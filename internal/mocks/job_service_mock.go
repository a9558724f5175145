package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ozlabs/forge/internal/dto"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJobByID(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) ListJobsByUser(ctx context.Context, userID string) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, userID)

	resp, _ := args.Get(0).([]dto.JobResponseDTO)
	return resp, args.Error(1)
}
