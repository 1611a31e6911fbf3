package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

type EngineConfig struct {
	Command      string   `env:"CLAUDE_COMMAND" envDefault:"claude"`
	Args         []string `env:"CLAUDE_ARGS" envDefault:"--print" envSeparator:" "`
	Model        string   `env:"CLAUDE_MODEL"`
	WorkDir      string   `env:"CLAUDE_WORKDIR"`
	UseMCPConfig bool     `env:"CLAUDE_USE_MCP_CONFIG" envDefault:"false"`
	TimeoutMs    int      `env:"CLAUDE_TIMEOUT_MS" envDefault:"120000"`
	MaxBuffer    int      `env:"CLAUDE_MAX_BUFFER" envDefault:"5242880"`
}

func NewEngineConfig(ctx context.Context) *EngineConfig {
	c := &EngineConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Engine config")
	}
	return c
}

func (c EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
