package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/shopmind/pkg/log"
)

type ExtractionConfig struct {
	BaseURL string `env:"EXTRACTION_BASE_URL" envDefault:"https://openrouter.ai/api"`
	APIKey  string `env:"EXTRACTION_API_KEY,required,notEmpty"`
	Model   string `env:"EXTRACTION_MODEL" envDefault:"google/gemma-3-27b-it:free"`

	// Per-call ceiling; the turn's caller context still wins if it is shorter.
	Timeout time.Duration `env:"EXTRACTION_TIMEOUT" envDefault:"30s"`
	// Turn text is clamped to this many tokens before it is sent out.
	MaxInputTokens int `env:"EXTRACTION_MAX_INPUT_TOKENS" envDefault:"4000"`
}

func NewExtractionConfig(ctx context.Context) *ExtractionConfig {
	c := &ExtractionConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Extraction config")
	}
	return c
}
