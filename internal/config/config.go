package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the api and worker binaries read from the
// environment.
type Config struct {
	Environment string `env:"APP_ENV,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`

	// Upstream AI providers. A single OpenAI-style endpoint serves
	// chat, image and speech generation.
	AIAPIKey    string        `env:"AI_API_KEY"`
	AIBaseURL   string        `env:"AI_BASE_URL,default=https://api.openai.com/v1"`
	AITimeout   time.Duration `env:"AI_TIMEOUT,default=60s"`
	ChatModel   string        `env:"AI_CHAT_MODEL,default=gpt-4o-mini"`
	ImageModel  string        `env:"AI_IMAGE_MODEL,default=dall-e-3"`
	SpeechModel string        `env:"AI_SPEECH_MODEL,default=tts-1"`

	// Rate limiter backend: "memory" (single node) or "redis"
	// (shared across instances).
	RateLimitBackend string `env:"RATE_LIMIT_BACKEND,default=memory"`
	RedisAddr        string `env:"REDIS_ADDR,default=localhost:6379"`

	MaxWorkers    int           `env:"MAX_WORKERS,default=4"`
	ClaimInterval time.Duration `env:"WORKER_CLAIM_INTERVAL,default=1s"`

	// Used by the social-posting integration for credential-at-rest
	// encryption; loaded here so both binaries validate it at boot.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
}

// to help with testing
var envProcess = envconfig.Process

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	switch cfg.RateLimitBackend {
	case "memory", "redis":
	default:
		errs = append(errs, "RATE_LIMIT_BACKEND must be memory or redis")
	}

	if cfg.RateLimitBackend == "redis" && strings.TrimSpace(cfg.RedisAddr) == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis")
	}

	if cfg.MaxWorkers < 1 {
		errs = append(errs, "MAX_WORKERS must be at least 1")
	}

	if cfg.AITimeout <= 0 {
		errs = append(errs, "AI_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
