package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

type ChunkConfig struct {
	MaxBytes      int     `env:"CHUNK_MAX_BYTES" envDefault:"25000"`
	BoundaryRatio float64 `env:"CHUNK_BOUNDARY_RATIO" envDefault:"0.3"`
}

func NewChunkConfig(ctx context.Context) *ChunkConfig {
	c := &ChunkConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Chunk config")
	}
	return c
}

func (c ChunkConfig) Chunk() chunk.Config {
	return chunk.Config{MaxBytes: c.MaxBytes, BoundaryRatio: c.BoundaryRatio}
}
