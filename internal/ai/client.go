package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/metrics"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/ratelimit"
	"github.com/ozlabs/forge/internal/retry"
)

// Service names used in logs, metrics and AIServiceError wrapping.
const (
	ServiceChat   = "chat-completion"
	ServiceImage  = "image-generation"
	ServiceSpeech = "text-to-speech"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type ImageOptions struct {
	Size    string
	Quality string
}

// Client is the only network egress surface the job processor depends
// on. Every method retries transient upstream failures internally and
// returns an AIServiceError once the budget is exhausted.
type Client interface {
	ChatCompletion(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (string, error)
	GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}

// upstreamError preserves the HTTP status of a failed provider call so
// the retry classifier can tell 429/5xx from permanent failures.
type upstreamError struct {
	status int
	body   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.status, e.body)
}

func (e *upstreamError) HTTPStatus() int { return e.status }

// HTTPClient talks to an OpenAI-style API. The underlying http.Client
// carries the request timeout; retries live in the retry engine, not
// here.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	chatModel   string
	imageModel  string
	speechModel string
	http        *http.Client
	limiter     *ratelimit.Limiter
	log         *logger.Logger
}

func NewHTTPClient(cfg *config.Config, limiter *ratelimit.Limiter, log *logger.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.AIAPIKey) == "" {
		return nil, errors.New("ai api key is required")
	}
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		apiKey:      strings.TrimSpace(cfg.AIAPIKey),
		baseURL:     strings.TrimRight(cfg.AIBaseURL, "/"),
		chatModel:   cfg.ChatModel,
		imageModel:  cfg.ImageModel,
		speechModel: cfg.SpeechModel,
		http:        &http.Client{Timeout: timeout},
		limiter:     limiter,
		log:         log,
	}, nil
}

var _ Client = (*HTTPClient)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClient) ChatCompletion(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
	if err := c.limiter.Enforce(ctx, ratelimit.CategoryAIChat, ServiceChat, 1); err != nil {
		return "", err
	}

	model := opts.Model
	if model == "" {
		model = c.chatModel
	}
	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	content, err := retry.AICall(ctx, c.log, ServiceChat, func(ctx context.Context) (string, error) {
		body, err := c.post(ctx, "/chat/completions", payload)
		if err != nil {
			return "", err
		}
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode chat response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat response contained no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		metrics.AICalls.WithLabelValues(ServiceChat, "error").Inc()
		return "", common.NewAIServiceError(ServiceChat, err)
	}

	metrics.AICalls.WithLabelValues(ServiceChat, "success").Inc()
	return content, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *HTTPClient) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (string, error) {
	if err := c.limiter.Enforce(ctx, ratelimit.CategoryAIImage, ServiceImage, 1); err != nil {
		return "", err
	}

	payload := imageRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		N:       1,
		Size:    opts.Size,
		Quality: opts.Quality,
	}

	url, err := retry.AICall(ctx, c.log, ServiceImage, func(ctx context.Context) (string, error) {
		body, err := c.post(ctx, "/images/generations", payload)
		if err != nil {
			return "", err
		}
		var resp imageResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode image response: %w", err)
		}
		if len(resp.Data) == 0 {
			return "", errors.New("image response contained no data")
		}
		return resp.Data[0].URL, nil
	})
	if err != nil {
		metrics.AICalls.WithLabelValues(ServiceImage, "error").Inc()
		return "", common.NewAIServiceError(ServiceImage, err)
	}

	metrics.AICalls.WithLabelValues(ServiceImage, "success").Inc()
	return url, nil
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

func (c *HTTPClient) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	if err := c.limiter.Enforce(ctx, ratelimit.CategoryAISpeech, ServiceSpeech, 1); err != nil {
		return nil, err
	}

	if voiceID == "" {
		voiceID = "alloy"
	}
	payload := speechRequest{Model: c.speechModel, Input: text, Voice: voiceID}

	audio, err := retry.AICall(ctx, c.log, ServiceSpeech, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, "/audio/speech", payload)
	})
	if err != nil {
		metrics.AICalls.WithLabelValues(ServiceSpeech, "error").Inc()
		return nil, common.NewAIServiceError(ServiceSpeech, err)
	}

	metrics.AICalls.WithLabelValues(ServiceSpeech, "success").Inc()
	return audio, nil
}

// post sends a JSON request and returns the raw response body. Non-2xx
// statuses become upstreamError so the retry classifier can inspect
// them.
func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &upstreamError{status: resp.StatusCode, body: snippet}
	}
	return body, nil
}
