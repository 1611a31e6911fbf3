package test

import (
	"os"
	"os/exec"
	"testing"
)

// EngineCommand returns the engine binary for integration runs. Tests are
// skipped unless TUSK_INTEGRATION=1 and the binary is on PATH.
func EngineCommand(t *testing.T) string {
	t.Helper()

	if os.Getenv("TUSK_INTEGRATION") != "1" {
		t.Skip("set TUSK_INTEGRATION=1 to run against a real engine")
	}

	cmd := os.Getenv("CLAUDE_COMMAND")
	if cmd == "" {
		cmd = "claude"
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		t.Skipf("engine %q not found: %v", cmd, err)
	}
	return path
}
