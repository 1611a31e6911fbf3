package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskbridge/internal/config"
	"github.com/sandevgo/tuskbridge/internal/core"
	"github.com/sandevgo/tuskbridge/internal/providers/engine"
	"github.com/sandevgo/tuskbridge/internal/providers/mcp"
	"github.com/sandevgo/tuskbridge/internal/service/activity"
	"github.com/sandevgo/tuskbridge/internal/service/bridge"
	"github.com/sandevgo/tuskbridge/internal/session"
	"github.com/sandevgo/tuskbridge/internal/storage/sqlite"
	"github.com/sandevgo/tuskbridge/internal/transport/cli"
	"github.com/sandevgo/tuskbridge/internal/transport/dashboard"
	"github.com/sandevgo/tuskbridge/internal/transport/telegram"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
	"github.com/sandevgo/tuskbridge/pkg/log"
	"github.com/sandevgo/tuskbridge/pkg/srv"
)

// NewServices builds every service in start order. stop ends the process,
// it is called when the local terminal session exits.
func NewServices(ctx context.Context, stop func()) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	engineCfg := config.NewEngineConfig(ctx)
	chunkCfg := config.NewChunkConfig(ctx)

	// 2. Session registry
	store, counter, cleanup, err := initStore(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize session store")
	}
	if cleanup != nil {
		services = append(services, cleanup)
	}

	// 3. MCP servers handed to the engine
	mcpStorage := mcp.NewFileStorage(appCfg.GetMCPConfigPath())
	if engineCfg.UseMCPConfig {
		services = append(services, mcp.NewWatcher(mcpStorage))
	}

	// 4. Engine
	exec, err := initEngine(appCfg, engineCfg, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize engine")
	}

	// 5. Bridge
	chunker, err := chunk.New(chunkCfg.Chunk())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid chunk config")
	}
	act := activity.NewLog(activity.DefaultCapacity)
	br, err := bridge.NewBridge(exec, chunker, act)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bridge")
	}

	// 6. Transports
	transports, err := initTransports(ctx, appCfg, br, counter, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	logger.Info().
		Str("engine", engineCfg.Command).
		Str("store", appCfg.SessionStore).
		Int("transports", len(transports)).
		Msg("services configured")

	return services
}

// initStore returns the session store, a counter for the dashboard and an
// optional service releasing the store on shutdown.
func initStore(ctx context.Context, cfg *config.AppConfig) (core.SessionStore, dashboard.SessionCounter, srv.Service, error) {
	if cfg.SessionStore == config.SessionStoreSQLite {
		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, nil, nil, err
		}
		repo := sqlite.NewSessionsRepo(db)
		return repo, repo.Count, srv.NewCleanup(db.Close), nil
	}

	store := session.NewMemoryStore(
		session.WithMaxEntries(cfg.SessionMaxEntries),
		session.WithTTL(cfg.SessionTTL),
	)
	counter := func(context.Context) (int, error) { return store.Len(), nil }
	return store, counter, nil, nil
}

func initEngine(appCfg *config.AppConfig, cfg *config.EngineConfig, store core.SessionStore) (*engine.Executor, error) {
	ec := engine.Config{
		Command:   cfg.Command,
		BaseArgs:  cfg.Args,
		Model:     cfg.Model,
		WorkDir:   cfg.WorkDir,
		Timeout:   cfg.Timeout(),
		MaxBuffer: cfg.MaxBuffer,
	}
	if cfg.UseMCPConfig {
		ec.MCPConfigPath = appCfg.GetMCPConfigPath()
	}
	return engine.NewExecutor(ec, store)
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	br *bridge.Bridge,
	counter dashboard.SessionCounter,
	stop func(),
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableDashboard {
		dashCfg := config.NewDashboardConfig(ctx)
		services = append(services, dashboard.NewServer(ctx, dashCfg.Port, br.Activity(),
			dashboard.WithVersion(core.AppVersion),
			dashboard.WithSessionCounter(counter),
		))
	}

	// Telegram Bot
	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, br)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(br, cfg, stop)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
