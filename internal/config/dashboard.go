package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

type DashboardConfig struct {
	Port int `env:"DASHBOARD_PORT" envDefault:"3981"`
}

func NewDashboardConfig(ctx context.Context) *DashboardConfig {
	c := &DashboardConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Dashboard config")
	}
	return c
}
