package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type AppConfig struct {
	RuntimePath string `env:"TUSK_RUNTIME_PATH" envDefault:".tuskbridge"`
	LogFormat   string `env:"TUSK_LOG_FORMAT" envDefault:"console"`

	// Transport Flags
	EnableTelegram  bool `env:"TUSK_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI       bool `env:"TUSK_ENABLE_CLI" envDefault:"true"`
	EnableDashboard bool `env:"TUSK_ENABLE_DASHBOARD" envDefault:"true"`

	// Session registry
	SessionStore      string        `env:"TUSK_SESSION_STORE" envDefault:"memory"`
	SessionMaxEntries int           `env:"TUSK_SESSION_MAX_ENTRIES" envDefault:"0"`
	SessionTTL        time.Duration `env:"TUSK_SESSION_TTL" envDefault:"0s"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if c.SessionStore != SessionStoreMemory && c.SessionStore != SessionStoreSQLite {
		return nil, fmt.Errorf("TUSK_SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreSQLite, c.SessionStore)
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tuskbridge.db")
}

func (c AppConfig) GetMCPConfigPath() string {
	return filepath.Join(c.RuntimePath, "mcp_config.json")
}

func (c AppConfig) GetHistoryPath() string {
	return filepath.Join(c.RuntimePath, "cli_history")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}
