package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandevgo/tuskbridge/pkg/log"
)

const watchInterval = time.Second

type FileStorage struct {
	path string
	mu   sync.RWMutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: path,
	}
}

func (c *FileStorage) Path() string {
	return c.path
}

// Load reads the config. If the file is missing, it creates an empty one.
func (c *FileStorage) Load(ctx context.Context) (*Config, error) {
	c.mu.RLock()
	data, err := os.ReadFile(c.path)
	c.mu.RUnlock()

	if errors.Is(err, fs.ErrNotExist) {
		log.FromCtx(ctx).Info().Str("path", c.path).Msg("mcp_config.json not found, creating default")

		config := &Config{MCPServers: make(map[string]ServerConfig)}
		if err := c.Save(ctx, config); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mcp config: %w", err)
	}

	return parse(data)
}

// Save writes cfg through a temporary file so the engine never reads a
// partial config.
func (c *FileStorage) Save(ctx context.Context, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mcp_config-*.json")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// Watch polls the file and emits every successfully parsed change. The
// channel is closed when ctx is done.
func (c *FileStorage) Watch(ctx context.Context) (<-chan Config, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	lastMod := info.ModTime()

	updates := make(chan Config)
	go func() {
		defer close(updates)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			info, err := os.Stat(c.path)
			if err != nil {
				// Deleted; any later file counts as a change.
				lastMod = time.Time{}
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}

			c.mu.RLock()
			data, err := os.ReadFile(c.path)
			c.mu.RUnlock()
			if err != nil {
				continue
			}

			config, err := parse(data)
			if err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("failed to parse mcp config")
				lastMod = info.ModTime()
				continue
			}
			lastMod = info.ModTime()

			select {
			case updates <- *config:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}

func parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse mcp config: %w", err)
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]ServerConfig)
	}
	return config, nil
}
