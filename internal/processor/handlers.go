package processor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ozlabs/forge/internal/ai"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/dto"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// HandlerFunc produces the output document for one claimed job. A nil
// error means the job completed and keeps its reservation as the
// charge.
type HandlerFunc func(ctx context.Context, job *models.Job) (map[string]any, error)

// Registry maps job types to their handlers. Unknown types fall back
// to the generic handler.
type Registry map[config.JobType]HandlerFunc

// Handlers owns the per-type generation logic. Progress updates are
// best effort; a failed progress write never fails the job.
type Handlers struct {
	ai   ai.Client
	repo job.JobRepoInterface
	log  *logger.Logger
}

func NewHandlers(aiClient ai.Client, repo job.JobRepoInterface, log *logger.Logger) *Handlers {
	return &Handlers{ai: aiClient, repo: repo, log: log}
}

func NewRegistry(h *Handlers) Registry {
	return Registry{
		config.JobTypeLogo:      h.Logo,
		config.JobTypeProduct:   h.Product,
		config.JobTypeCharacter: h.Character,
		config.JobTypeCampaign:  h.Campaign,
		config.JobTypeTTS:       h.TTS,
		config.JobTypeVideo:     h.Video,
		config.JobTypeGeneric:   h.Generic,
	}
}

func (h *Handlers) progress(ctx context.Context, jobID string, pct int) {
	if err := h.repo.UpdateProgress(ctx, jobID, pct); err != nil {
		h.log.Warn("progress update failed", "job_id", jobID, "progress", pct, "error", err.Error())
	}
}

func decodeInput[T any](raw []byte) (*T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode job input: %w", err)
	}
	return &payload, nil
}

// Logo designs a concept via chat, then renders it as an image.
func (h *Handlers) Logo(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.LogoPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 20)

	concept, err := h.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are a senior brand designer. Describe a single logo concept in two sentences."},
		{Role: "user", Content: fmt.Sprintf("Business: %s. Industry: %s. Style: %s.",
			payload.BusinessName, payload.Industry, payload.Style)},
	}, ai.ChatOptions{Temperature: 0.8})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 40)

	imageURL, err := h.ai.GenerateImage(ctx,
		fmt.Sprintf("Minimal vector logo for %s. %s", payload.BusinessName, concept),
		ai.ImageOptions{Size: "1024x1024"})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 90)

	return map[string]any{
		"image_url": imageURL,
		"concept":   concept,
	}, nil
}

// Product writes marketing copy for a product niche.
func (h *Handlers) Product(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.ProductPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 30)

	description, err := h.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are an e-commerce copywriter. Write a concise product description."},
		{Role: "user", Content: fmt.Sprintf("Niche: %s. Target audience: %s.",
			payload.Niche, payload.TargetAudience)},
	}, ai.ChatOptions{Temperature: 0.7})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 90)

	return map[string]any{"description": description}, nil
}

// Character produces a backstory and a portrait.
func (h *Handlers) Character(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.CharacterPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 20)

	backstory, err := h.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are a character writer. Write a short backstory, one paragraph."},
		{Role: "user", Content: fmt.Sprintf("Name: %s. Archetype: %s. Setting: %s.",
			payload.Name, payload.Archetype, payload.Setting)},
	}, ai.ChatOptions{Temperature: 0.9})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 50)

	portraitURL, err := h.ai.GenerateImage(ctx,
		fmt.Sprintf("Portrait of %s, %s, %s", payload.Name, payload.Archetype, payload.Setting),
		ai.ImageOptions{Size: "1024x1024"})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 90)

	return map[string]any{
		"backstory":    backstory,
		"portrait_url": portraitURL,
	}, nil
}

// Campaign drafts a multi-day content plan.
func (h *Handlers) Campaign(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.CampaignPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 30)

	days := payload.DurationDays
	if days == 0 {
		days = 7
	}
	plan, err := h.ai.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: "You are a social media strategist. Produce a day-by-day campaign plan."},
		{Role: "user", Content: fmt.Sprintf("Goal: %s. Platform: %s. Duration: %d days.",
			payload.Goal, payload.Platform, days)},
	}, ai.ChatOptions{Temperature: 0.7, MaxTokens: 2048})
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 90)

	return map[string]any{
		"plan":          plan,
		"duration_days": days,
	}, nil
}

// TTS synthesizes speech and returns the audio inline as base64.
func (h *Handlers) TTS(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.TTSPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 30)

	audio, err := h.ai.GenerateSpeech(ctx, payload.Text, payload.VoiceID)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 90)

	return map[string]any{
		"audio_base64": base64.StdEncoding.EncodeToString(audio),
		"voice_id":     payload.VoiceID,
		"characters":   len(payload.Text),
	}, nil
}

// Video generates a script when none was supplied, narrates it, and
// records the avatar to composite during rendering.
func (h *Handlers) Video(ctx context.Context, j *models.Job) (map[string]any, error) {
	payload, err := decodeInput[dto.VideoPayload](j.InputData)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 10)

	script := payload.Script
	if script == "" {
		script, err = h.ai.ChatCompletion(ctx, []ai.ChatMessage{
			{Role: "system", Content: "You are a video scriptwriter. Write a 60-second narration script."},
			{Role: "user", Content: "Topic: " + payload.Topic},
		}, ai.ChatOptions{Temperature: 0.8})
		if err != nil {
			return nil, err
		}
	}
	h.progress(ctx, j.ID, 40)

	narration, err := h.ai.GenerateSpeech(ctx, script, payload.VoiceID)
	if err != nil {
		return nil, err
	}
	h.progress(ctx, j.ID, 80)

	return map[string]any{
		"script":           script,
		"narration_base64": base64.StdEncoding.EncodeToString(narration),
		"avatar_id":        payload.AvatarID,
		"render_status":    "narration-ready",
	}, nil
}

// Generic acknowledges arbitrary work without calling any provider.
func (h *Handlers) Generic(ctx context.Context, j *models.Job) (map[string]any, error) {
	h.progress(ctx, j.ID, 50)
	return map[string]any{"acknowledged": true}, nil
}
