package mcp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_Load_CreatesDefault(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "mcp_config.json")
	fs := NewFileStorage(path)

	cfg, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cfg.MCPServers)
	assert.Empty(t, cfg.MCPServers)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcpServers":{}}`, string(data))
}

func TestFileStorage_Load_NullMCPServers(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mcp_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": null}`), 0644))

	cfg, err := NewFileStorage(path).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cfg.MCPServers)
}

func TestFileStorage_Load_InvalidJSON(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"truncated":        `{"mcpServers": {`,
		"servers as array": `{"mcpServers": []}`,
		"args as string":   `{"mcpServers": {"x": {"command": "a", "args": "b"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mcp_config.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := NewFileStorage(path).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileStorage_SaveRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")
	fs := NewFileStorage(path)
	ctx := context.Background()

	in := &Config{MCPServers: map[string]ServerConfig{
		"files": {Command: "npx", Args: []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"}},
		"docs":  {Type: TransportHTTP, URL: "https://docs.example.com/mcp", Headers: map[string]string{"Authorization": "Bearer \"x\""}},
	}}
	require.NoError(t, fs.Save(ctx, in))

	out, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStorage_Watch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mcp_config.json")
	fs := NewFileStorage(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := fs.Load(ctx)
	require.NoError(t, err)

	updates, err := fs.Watch(ctx)
	require.NoError(t, err)

	// Make sure the new mtime is observably later.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, fs.Save(ctx, &Config{MCPServers: map[string]ServerConfig{"a": {Command: "x"}}}))
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case cfg := <-updates:
		assert.Contains(t, cfg.MCPServers, "a")
	case <-time.After(5 * time.Second):
		t.Fatal("no update received")
	}

	cancel()
	select {
	case _, open := <-updates:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("updates channel not closed after cancel")
	}
}

func TestFileStorage_Watch_MissingFile(t *testing.T) {
	t.Parallel()
	fs := NewFileStorage(filepath.Join(t.TempDir(), "absent.json"))

	_, err := fs.Watch(context.Background())
	assert.Error(t, err)
}
