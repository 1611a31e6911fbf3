package mcp

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

// Watcher reports edits to the MCP config while the bridge runs. The engine
// reads the file on every turn, so changes apply without a restart; the
// watcher only makes broken edits visible in the log.
type Watcher struct {
	storage *FileStorage
}

func NewWatcher(storage *FileStorage) *Watcher {
	return &Watcher{storage: storage}
}

func (w *Watcher) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "mcp").Logger()

	cfg, err := w.storage.Load(ctx)
	if err != nil {
		return err
	}
	report(&logger, cfg, "mcp config loaded")

	updates, err := w.storage.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for cfg := range updates {
			report(&logger, &cfg, "mcp config changed")
		}
	}()
	return nil
}

func (w *Watcher) Shutdown(ctx context.Context) error {
	return nil
}

func report(logger *zerolog.Logger, cfg *Config, msg string) {
	if err := cfg.Validate(); err != nil {
		logger.Warn().Err(err).Int("servers", len(cfg.MCPServers)).Msg(msg + " with invalid entries")
		return
	}
	logger.Info().Int("servers", len(cfg.MCPServers)).Msg(msg)
}
