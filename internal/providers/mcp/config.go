// Package mcp manages the MCP server file handed to the engine with
// --mcp-config. The engine itself talks to the servers.
package mcp

import (
	"errors"
	"fmt"
	"sort"
)

type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportHTTP  TransportType = "http"
	TransportSSE   TransportType = "sse"
)

type Config struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// ServerConfig represents an entry in mcp_config.json
type ServerConfig struct {
	Type    TransportType     `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// GetTransport infers the transport when Type is omitted: a URL means http,
// a command means stdio.
func (c *ServerConfig) GetTransport() (TransportType, error) {
	switch c.Type {
	case TransportStdio:
		if c.Command == "" {
			return "", errors.New("stdio server needs a command")
		}
		return TransportStdio, nil
	case TransportHTTP, TransportSSE:
		if c.URL == "" {
			return "", fmt.Errorf("%s server needs a url", c.Type)
		}
		return c.Type, nil
	case "":
	default:
		return "", fmt.Errorf("unknown transport type %q", c.Type)
	}

	if c.URL != "" {
		return TransportHTTP, nil
	}
	if c.Command != "" {
		return TransportStdio, nil
	}
	return "", errors.New("invalid config: neither url nor command provided")
}

// Validate checks every server entry and reports all problems at once.
func (c *Config) Validate() error {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		srv := c.MCPServers[name]
		if _, err := srv.GetTransport(); err != nil {
			errs = append(errs, fmt.Errorf("server %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
