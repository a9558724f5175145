package assistant

import (
	"github.com/gin-gonic/gin"

	"github.com/ozlabs/forge/middleware"
)

type Handler struct {
	assistant *Assistant
}

func NewHandler(a *Assistant) *Handler {
	return &Handler{assistant: a}
}

type analyzeRequest struct {
	Content string `json:"content" validate:"required"`
}

// Recommendations handles POST /api/v1/assistant/recommendations.
func (h *Handler) Recommendations(c *gin.Context) (any, error) {
	var profile Profile
	if err := middleware.Bind(c, &profile); err != nil {
		return nil, err
	}
	return h.assistant.GenerateRecommendations(c.Request.Context(), profile), nil
}

// Strategy handles POST /api/v1/assistant/strategy.
func (h *Handler) Strategy(c *gin.Context) (any, error) {
	var profile Profile
	if err := middleware.Bind(c, &profile); err != nil {
		return nil, err
	}
	return h.assistant.GetPersonalizedStrategy(c.Request.Context(), profile), nil
}

// Analyze handles POST /api/v1/assistant/analyze.
func (h *Handler) Analyze(c *gin.Context) (any, error) {
	var req analyzeRequest
	if err := middleware.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.assistant.AnalyzeContent(c.Request.Context(), req.Content), nil
}
