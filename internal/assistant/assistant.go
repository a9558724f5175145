package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozlabs/forge/internal/ai"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// Profile is the advisory input: a summary of the user's account used
// to build prompts and to drive the deterministic fallback.
type Profile struct {
	UserID             string   `json:"user_id" validate:"required"`
	ConnectedPlatforms []string `json:"connected_platforms"`
	ContentCount       int      `json:"content_count"`
	Plan               string   `json:"plan"`
	Credits            int      `json:"credits"`
	AccountAgeDays     int      `json:"account_age_days"`
}

type Recommendation struct {
	Priority         string   `json:"priority"`
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ActionSteps      []string `json:"actionSteps"`
	EstimatedRevenue string   `json:"estimatedRevenue"`
	TimeToImplement  string   `json:"timeToImplement"`
	Difficulty       string   `json:"difficulty"`
}

type Strategy struct {
	Summary       string   `json:"summary"`
	FocusAreas    []string `json:"focusAreas"`
	NextMilestone string   `json:"nextMilestone"`
}

type ContentAnalysis struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
}

// Assistant is a pure advisory read path: it never mutates persisted
// state. Every method degrades to deterministic output instead of
// failing, and logs the degraded mode when it does.
type Assistant struct {
	ai  ai.Client
	log *logger.Logger
}

func New(aiClient ai.Client, log *logger.Logger) *Assistant {
	return &Assistant{ai: aiClient, log: log}
}

// GenerateRecommendations asks the model for prioritized growth
// recommendations and parses them leniently. AI or parse failures fall
// back to the hand-authored set keyed off profile heuristics.
func (a *Assistant) GenerateRecommendations(ctx context.Context, profile Profile) []Recommendation {
	response, err := a.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are OZ, a creator-monetization advisor. Reply with a JSON array of recommendation objects with keys: priority, category, title, description, actionSteps, estimatedRevenue, timeToImplement, difficulty."},
		{Role: "user", Content: profilePrompt(profile)},
	}, ai.ChatOptions{Temperature: 0.6, MaxTokens: 2048})
	if err != nil {
		a.log.Warn("recommendations degraded to fallback",
			"user_id", profile.UserID,
			"mode", "degraded",
			"reason", "ai_call_failed",
			"error", err.Error(),
		)
		return fallbackRecommendations(profile)
	}

	recs, err := parseRecommendations(response)
	if err != nil {
		a.log.Warn("recommendations degraded to fallback",
			"user_id", profile.UserID,
			"mode", "degraded",
			"reason", "parse_failed",
			"error", err.Error(),
		)
		return fallbackRecommendations(profile)
	}
	return recs
}

// GetPersonalizedStrategy follows the same call, parse, fall back
// shape as GenerateRecommendations.
func (a *Assistant) GetPersonalizedStrategy(ctx context.Context, profile Profile) *Strategy {
	response, err := a.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are OZ, a creator-monetization advisor. Reply with a JSON object with keys: summary, focusAreas, nextMilestone."},
		{Role: "user", Content: profilePrompt(profile)},
	}, ai.ChatOptions{Temperature: 0.6, MaxTokens: 1024})
	if err != nil {
		a.log.Warn("strategy degraded to fallback",
			"user_id", profile.UserID,
			"mode", "degraded",
			"reason", "ai_call_failed",
			"error", err.Error(),
		)
		return fallbackStrategy(profile)
	}

	strategy, err := parseStrategy(response)
	if err != nil {
		a.log.Warn("strategy degraded to fallback",
			"user_id", profile.UserID,
			"mode", "degraded",
			"reason", "parse_failed",
			"error", err.Error(),
		)
		return fallbackStrategy(profile)
	}
	return strategy
}

// AnalyzeContent scores a piece of content. The fallback analysis is
// derived from length only.
func (a *Assistant) AnalyzeContent(ctx context.Context, content string) *ContentAnalysis {
	response, err := a.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are OZ, a content coach. Reply with a JSON object with keys: score (0-100), strengths, improvements, summary."},
		{Role: "user", Content: "Analyze this content:\n\n" + content},
	}, ai.ChatOptions{Temperature: 0.4, MaxTokens: 1024})
	if err != nil {
		a.log.Warn("content analysis degraded to fallback",
			"mode", "degraded",
			"reason", "ai_call_failed",
			"error", err.Error(),
		)
		return fallbackAnalysis(content)
	}

	analysis, err := parseAnalysis(response)
	if err != nil {
		a.log.Warn("content analysis degraded to fallback",
			"mode", "degraded",
			"reason", "parse_failed",
			"error", err.Error(),
		)
		return fallbackAnalysis(content)
	}
	return analysis
}

func profilePrompt(p Profile) string {
	platforms := "none"
	if len(p.ConnectedPlatforms) > 0 {
		platforms = strings.Join(p.ConnectedPlatforms, ", ")
	}
	return fmt.Sprintf(
		"Connected platforms: %s. Content pieces created: %d. Plan: %s. Credits: %d. Account age: %d days.",
		platforms, p.ContentCount, p.Plan, p.Credits, p.AccountAgeDays,
	)
}
