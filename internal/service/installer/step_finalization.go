package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep computes derived values and final env var formatting
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func finalize(state *InstallState) {
	// A Telegram deployment usually runs unattended.
	if state.telegramEnabled() {
		state.EnvVars["TUSK_ENABLE_CLI"] = "false"
	} else {
		state.EnvVars["TUSK_ENABLE_TELEGRAM"] = "false"
		state.EnvVars["TUSK_ENABLE_CLI"] = "true"
	}

	defaults := map[string]string{
		"TUSK_DEBUG":            "0",
		"TUSK_ENABLE_DASHBOARD": "true",
		"TUSK_SESSION_STORE":    "memory",
		"CLAUDE_COMMAND":        defaultEngineCommand,
		"CLAUDE_TIMEOUT_MS":     "120000",
	}
	for k, v := range defaults {
		if state.EnvVars[k] == "" {
			state.EnvVars[k] = v
		}
	}
}
