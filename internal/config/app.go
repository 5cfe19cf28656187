package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/shopmind/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"SHOPMIND_RUNTIME_PATH" envDefault:".shopmind"`

	// Context Management
	ContextWindowSize int `env:"CONTEXT_WINDOW_SIZE" envDefault:"30"`
	// Token budget handed to the context renderer before each prompt.
	MemoryTokenBudget int `env:"MEMORY_TOKEN_BUDGET" envDefault:"800"`
	// The orchestrator prunes derived memory views every N turns.
	PruneEveryTurns int `env:"MEMORY_PRUNE_EVERY_TURNS" envDefault:"10"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "shopmind.db")
}
