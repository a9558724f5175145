package common

import (
	"fmt"
	"net/http"
)

// Machine-readable error codes returned in API responses.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeNotFound            = "NOT_FOUND"
	CodeRateLimit           = "RATE_LIMIT"
	CodeAIService           = "AI_SERVICE_ERROR"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
)

// AppError is the base type for every intentionally-thrown application
// failure. Message is internal and belongs in logs only; UserMessage is
// safe to return to clients.
type AppError struct {
	Status      int                 `json:"-"`
	Code        string              `json:"code"`
	Message     string              `json:"-"`
	UserMessage string              `json:"message"`
	Fields      map[string][]string `json:"details,omitempty"`
	RetryAfter  int                 `json:"-"`
	Err         error               `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus lets the retry classifier read the status without
// depending on the concrete type.
func (e *AppError) HTTPStatus() int { return e.Status }

// Errf creates an AppError with a formatted message used both
// internally and as the user-facing message.
func Errf(status int, code, format string, args ...any) *AppError {
	msg := fmt.Sprintf(format, args...)
	return &AppError{Status: status, Code: code, Message: msg, UserMessage: msg}
}

// NewValidationError carries a field -> messages map describing what
// failed; the map is returned to the client under "details".
func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{
		Status:      http.StatusBadRequest,
		Code:        CodeValidation,
		Message:     "validation failed",
		UserMessage: "Validation failed",
		Fields:      fields,
	}
}

func NewAuthenticationError() *AppError {
	return &AppError{
		Status:      http.StatusUnauthorized,
		Code:        CodeUnauthorized,
		Message:     "authentication required",
		UserMessage: "Authentication required",
	}
}

func NewInsufficientCreditsError(required, available int) *AppError {
	msg := fmt.Sprintf("insufficient credits: required %d, available %d", required, available)
	return &AppError{
		Status:      http.StatusPaymentRequired,
		Code:        CodeInsufficientCredits,
		Message:     msg,
		UserMessage: msg,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Status:      http.StatusNotFound,
		Code:        CodeNotFound,
		Message:     resource + " not found",
		UserMessage: resource + " not found",
	}
}

// NewRateLimitError carries the number of seconds after which the
// client may retry.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Status:      http.StatusTooManyRequests,
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded, retry after %ds", retryAfter),
		UserMessage: "Too many requests, please try again later",
		RetryAfter:  retryAfter,
	}
}

// NewAIServiceError wraps an upstream AI failure. The original error
// stays internal; clients only see a generic unavailability message.
func NewAIServiceError(service string, err error) *AppError {
	return &AppError{
		Status:      http.StatusServiceUnavailable,
		Code:        CodeAIService,
		Message:     fmt.Sprintf("%s service error", service),
		UserMessage: "AI service is temporarily unavailable, please try again later",
		Err:         err,
	}
}
