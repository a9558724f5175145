package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/ratelimit"
)

// RateLimit bounds request volume per client IP using the given
// limiter category before the handler runs.
func RateLimit(limiter *ratelimit.Limiter, log *logger.Logger, category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := limiter.Enforce(c.Request.Context(), category, c.ClientIP(), 1)
		if err == nil {
			c.Next()
			return
		}

		requestID := uuid.NewString()
		var appErr *common.AppError
		if !errors.As(err, &appErr) {
			appErr = common.NewRateLimitError(1)
		}

		c.Header("X-Request-ID", requestID)
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
		c.AbortWithStatusJSON(appErr.Status, ErrorResponse{
			Success:   false,
			Error:     ErrorBody{Code: appErr.Code, Message: appErr.UserMessage},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: requestID,
		})
	}
}
