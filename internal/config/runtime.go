package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath resolves TUSK_RUNTIME_PATH before the rest of the
// configuration is loaded, so the .env file inside it can be found.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("TUSK_RUNTIME_PATH"))
}

// Relative paths are taken from the user's home directory.
func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".tuskbridge"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
