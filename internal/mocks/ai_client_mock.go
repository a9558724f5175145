package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ozlabs/forge/internal/ai"
)

type AIClientMock struct {
	mock.Mock
}

func (m *AIClientMock) ChatCompletion(ctx context.Context, messages []ai.ChatMessage, opts ai.ChatOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *AIClientMock) GenerateImage(ctx context.Context, prompt string, opts ai.ImageOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *AIClientMock) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	args := m.Called(ctx, text, voiceID)

	audio, _ := args.Get(0).([]byte)
	return audio, args.Error(1)
}
