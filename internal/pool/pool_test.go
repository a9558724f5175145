package pool

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/mocks"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
)

func TestFailStuckJobs_MarksFailedAndRefunds(t *testing.T) {
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := New(0, repo, creditsMock, nil, time.Second, 10*time.Minute, logger.NewNop())
	defer p.cancel()

	repo.On("ListStuck", mock.Anything, 10*time.Minute).Return([]models.Job{
		{ID: "stuck-1", UserID: "user-1", Type: "video", CreditsReserved: 20},
	}, nil)
	repo.On("MarkFailed", mock.Anything, "stuck-1", mock.AnythingOfType("string")).Return(nil)
	creditsMock.On("Refund", mock.Anything, "user-1", 20, "stuck-1").
		Return(&models.CreditLedgerEntry{Amount: 20}, nil)

	p.failStuckJobs()

	repo.AssertExpectations(t)
	creditsMock.AssertExpectations(t)
}

func TestFailStuckJobs_SkipsRefundWhenMarkFailedErrors(t *testing.T) {
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := New(0, repo, creditsMock, nil, time.Second, 10*time.Minute, logger.NewNop())
	defer p.cancel()

	repo.On("ListStuck", mock.Anything, 10*time.Minute).Return([]models.Job{
		{ID: "stuck-1", UserID: "user-1", CreditsReserved: 5},
	}, nil)
	repo.On("MarkFailed", mock.Anything, "stuck-1", mock.AnythingOfType("string")).
		Return(assert.AnError)

	p.failStuckJobs()

	creditsMock.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFailStuckJobs_SkipsRefundWhenWorkerSettledFirst(t *testing.T) {
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := New(0, repo, creditsMock, nil, time.Second, 10*time.Minute, logger.NewNop())
	defer p.cancel()

	// Between the stuck scan and the janitor's update, the worker
	// finished the job. The terminal guard rejects the late MarkFailed
	// and the reservation must stay charged.
	repo.On("ListStuck", mock.Anything, 10*time.Minute).Return([]models.Job{
		{ID: "stuck-2", UserID: "user-1", CreditsReserved: 20},
	}, nil)
	repo.On("MarkFailed", mock.Anything, "stuck-2", mock.AnythingOfType("string")).
		Return(fmt.Errorf("mark failed stuck-2: %w", job.ErrNotProcessing))

	p.failStuckJobs()

	creditsMock.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
