package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// CtxRequestID is the gin context key carrying the request correlation
// ID.
const CtxRequestID = "request_id"

type SuccessResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
}

type ErrorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	RequestID string    `json:"requestId"`
}

// HandlerFunc is an endpoint that returns data or an error instead of
// writing the response itself; Wrap turns the outcome into the uniform
// envelope.
type HandlerFunc func(c *gin.Context) (any, error)

// Wrap converts a HandlerFunc into a gin handler that assigns a
// request ID, logs start/completion/failure with duration, and renders
// the response envelope. Untyped errors surface only as a generic 500;
// internal detail never reaches the client.
func Wrap(log *logger.Logger, h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set(CtxRequestID, requestID)
		start := time.Now()

		log.Info("request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		data, err := h(c)
		duration := time.Since(start)

		c.Header("X-Request-ID", requestID)
		c.Header("X-Response-Time", fmt.Sprintf("%dms", duration.Milliseconds()))
		timestamp := time.Now().UTC().Format(time.RFC3339)

		if err == nil {
			log.Info("request completed",
				"request_id", requestID,
				"duration_ms", duration.Milliseconds(),
			)
			c.JSON(http.StatusOK, SuccessResponse{
				Success:   true,
				Data:      data,
				Timestamp: timestamp,
				RequestID: requestID,
			})
			return
		}

		var appErr *common.AppError
		if errors.As(err, &appErr) {
			log.Warn("request failed",
				"request_id", requestID,
				"code", appErr.Code,
				"status", appErr.Status,
				"error", appErr.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			if appErr.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
			}
			c.JSON(appErr.Status, ErrorResponse{
				Success:   false,
				Error:     ErrorBody{Code: appErr.Code, Message: appErr.UserMessage, Details: appErr.Fields},
				Timestamp: timestamp,
				RequestID: requestID,
			})
			return
		}

		log.Error("request errored unexpectedly",
			"request_id", requestID,
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success:   false,
			Error:     ErrorBody{Code: common.CodeInternal, Message: "An unexpected error occurred"},
			Timestamp: timestamp,
			RequestID: requestID,
		})
	}
}
