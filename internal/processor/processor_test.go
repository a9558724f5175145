package processor_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/mocks"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/processor"
)

func newProcessor(aiMock *mocks.AIClientMock, repo *mocks.JobRepoMock, creditsMock *mocks.CreditServiceMock) *processor.Processor {
	handlers := processor.NewHandlers(aiMock, repo, logger.NewNop())
	return processor.New(repo, creditsMock, processor.NewRegistry(handlers), handlers.Generic, logger.NewNop())
}

func TestProcess_LogoSuccessKeepsReservationAsCharge(t *testing.T) {
	aiMock := new(mocks.AIClientMock)
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := newProcessor(aiMock, repo, creditsMock)

	j := &models.Job{
		ID:              "job-1",
		UserID:          "user-1",
		Type:            "logo",
		InputData:       datatypes.JSON(`{"business_name":"Acme","industry":"robotics"}`),
		CreditsReserved: 10,
	}

	repo.On("MarkProcessing", mock.Anything, "job-1").Return(nil)
	repo.On("UpdateProgress", mock.Anything, "job-1", mock.AnythingOfType("int")).Return(nil)
	aiMock.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return("A bold geometric mark.", nil)
	aiMock.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).
		Return("https://img.example/logo.png", nil)

	var savedOutput datatypes.JSON
	repo.On("MarkCompleted", mock.Anything, "job-1", mock.Anything, 10).
		Run(func(args mock.Arguments) {
			savedOutput = args.Get(2).(datatypes.JSON)
		}).
		Return(nil)

	p.Process(context.Background(), j)

	var output map[string]any
	require.NoError(t, json.Unmarshal(savedOutput, &output))
	assert.Equal(t, "https://img.example/logo.png", output["image_url"])
	assert.Equal(t, "A bold geometric mark.", output["concept"])
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	// The debit from creation already covers the job; success moves no
	// further credits.
	creditsMock.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	creditsMock.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_FailureRefundsReservation(t *testing.T) {
	aiMock := new(mocks.AIClientMock)
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := newProcessor(aiMock, repo, creditsMock)

	j := &models.Job{
		ID:              "job-2",
		UserID:          "user-1",
		Type:            "tts",
		InputData:       datatypes.JSON(`{"text":"hello world"}`),
		CreditsReserved: 1,
	}

	repo.On("MarkProcessing", mock.Anything, "job-2").Return(nil)
	repo.On("UpdateProgress", mock.Anything, "job-2", mock.AnythingOfType("int")).Return(nil)
	aiMock.On("GenerateSpeech", mock.Anything, "hello world", "").
		Return(nil, common.NewAIServiceError("text-to-speech", assert.AnError))

	repo.On("MarkFailed", mock.Anything, "job-2",
		"AI service is temporarily unavailable, please try again later").Return(nil)
	creditsMock.On("Refund", mock.Anything, "user-1", 1, "job-2").
		Return(&models.CreditLedgerEntry{Amount: 1, BalanceAfter: 50}, nil)

	p.Process(context.Background(), j)

	repo.AssertExpectations(t)
	creditsMock.AssertExpectations(t)
	creditsMock.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_AlreadySettledJobIsNotRefunded(t *testing.T) {
	aiMock := new(mocks.AIClientMock)
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := newProcessor(aiMock, repo, creditsMock)

	j := &models.Job{
		ID:              "job-5",
		UserID:          "user-1",
		Type:            "tts",
		InputData:       datatypes.JSON(`{"text":"hello"}`),
		CreditsReserved: 1,
	}

	repo.On("MarkProcessing", mock.Anything, "job-5").Return(nil)
	repo.On("UpdateProgress", mock.Anything, "job-5", mock.AnythingOfType("int")).Return(nil)
	aiMock.On("GenerateSpeech", mock.Anything, "hello", "").
		Return(nil, common.NewAIServiceError("text-to-speech", assert.AnError))

	// The janitor timed the job out and refunded it before this worker
	// could record the failure.
	repo.On("MarkFailed", mock.Anything, "job-5", mock.AnythingOfType("string")).
		Return(fmt.Errorf("mark failed job-5: %w", job.ErrNotProcessing))

	p.Process(context.Background(), j)

	repo.AssertExpectations(t)
	creditsMock.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_UnknownTypeUsesFallback(t *testing.T) {
	aiMock := new(mocks.AIClientMock)
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := newProcessor(aiMock, repo, creditsMock)

	j := &models.Job{
		ID:              "job-3",
		UserID:          "user-1",
		Type:            "mystery",
		InputData:       datatypes.JSON(`{}`),
		CreditsReserved: 1,
	}

	repo.On("MarkProcessing", mock.Anything, "job-3").Return(nil)
	repo.On("UpdateProgress", mock.Anything, "job-3", mock.AnythingOfType("int")).Return(nil)
	repo.On("MarkCompleted", mock.Anything, "job-3", mock.Anything, 1).Return(nil)

	p.Process(context.Background(), j)

	repo.AssertExpectations(t)
	aiMock.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_GenericJobWithoutProvider(t *testing.T) {
	aiMock := new(mocks.AIClientMock)
	repo := new(mocks.JobRepoMock)
	creditsMock := new(mocks.CreditServiceMock)
	p := newProcessor(aiMock, repo, creditsMock)

	j := &models.Job{
		ID:              "job-4",
		UserID:          "user-2",
		Type:            "generic",
		InputData:       datatypes.JSON(`{"note":"ping"}`),
		CreditsReserved: 1,
	}

	repo.On("MarkProcessing", mock.Anything, "job-4").Return(nil)
	repo.On("UpdateProgress", mock.Anything, "job-4", 50).Return(nil)

	var savedOutput datatypes.JSON
	repo.On("MarkCompleted", mock.Anything, "job-4", mock.Anything, 1).
		Run(func(args mock.Arguments) {
			savedOutput = args.Get(2).(datatypes.JSON)
		}).
		Return(nil)

	p.Process(context.Background(), j)

	var output map[string]any
	require.NoError(t, json.Unmarshal(savedOutput, &output))
	assert.Equal(t, true, output["acknowledged"])
}
