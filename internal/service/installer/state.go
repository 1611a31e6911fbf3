package installer

import "path/filepath"

type InstallState struct {
	RuntimePath string
	EnvVars     map[string]string
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{
		RuntimePath: runtimePath,
		EnvVars:     make(map[string]string),
	}
}

// EnvPath is where the wizard writes the collected variables.
func (s *InstallState) EnvPath() string {
	return filepath.Join(s.RuntimePath, ".env")
}

func (s *InstallState) telegramEnabled() bool {
	return s.EnvVars["TUSK_ENABLE_TELEGRAM"] == "true"
}
