package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/middleware"
)

func performRequest(t *testing.T, h middleware.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/test", middleware.Wrap(logger.NewNop(), h))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestWrap_SuccessEnvelope(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) (any, error) {
		return map[string]string{"hello": "world"}, nil
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Response-Time"))

	var body struct {
		Success   bool              `json:"success"`
		Data      map[string]string `json:"data"`
		Timestamp string            `json:"timestamp"`
		RequestID string            `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "world", body.Data["hello"])
	assert.NotEmpty(t, body.Timestamp)
	assert.Equal(t, w.Header().Get("X-Request-ID"), body.RequestID)
}

func TestWrap_ValidationErrorEnvelope(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) (any, error) {
		return nil, common.NewValidationError(map[string][]string{"field": {"msg"}})
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string              `json:"code"`
			Message string              `json:"message"`
			Details map[string][]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "Validation failed", body.Error.Message)
	assert.Equal(t, []string{"msg"}, body.Error.Details["field"])
}

func TestWrap_RateLimitErrorSetsRetryAfter(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) (any, error) {
		return nil, common.NewRateLimitError(42)
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
}

func TestWrap_UntypedErrorHidesDetail(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) (any, error) {
		return nil, errors.New("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
}
