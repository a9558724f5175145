package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	upstream := errors.New("connection refused")

	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidationError(map[string][]string{"name": {"required"}}), http.StatusBadRequest, CodeValidation},
		{"authentication", NewAuthenticationError(), http.StatusUnauthorized, CodeUnauthorized},
		{"insufficient credits", NewInsufficientCreditsError(10, 3), http.StatusPaymentRequired, CodeInsufficientCredits},
		{"not found", NewNotFoundError("job"), http.StatusNotFound, CodeNotFound},
		{"rate limit", NewRateLimitError(30), http.StatusTooManyRequests, CodeRateLimit},
		{"ai service", NewAIServiceError("chat-completion", upstream), http.StatusServiceUnavailable, CodeAIService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.NotEmpty(t, tt.err.UserMessage)
		})
	}
}

func TestInsufficientCreditsMessageCarriesAmounts(t *testing.T) {
	err := NewInsufficientCreditsError(15, 4)
	assert.Contains(t, err.UserMessage, "15")
	assert.Contains(t, err.UserMessage, "4")
}

func TestAIServiceErrorHidesUpstreamDetail(t *testing.T) {
	upstream := errors.New("secret internal detail")
	err := NewAIServiceError("text-to-speech", upstream)

	assert.NotContains(t, err.UserMessage, "secret")
	assert.ErrorIs(t, err, upstream)
}

func TestRateLimitErrorRetryAfter(t *testing.T) {
	err := NewRateLimitError(42)
	assert.Equal(t, 42, err.RetryAfter)
}

func TestErrorsAsAppError(t *testing.T) {
	var target *AppError
	wrapped := NewNotFoundError("user")
	assert.True(t, errors.As(error(wrapped), &target))
	assert.Equal(t, CodeNotFound, target.Code)
}
