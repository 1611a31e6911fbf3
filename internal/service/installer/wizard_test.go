package installer

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func typeText(m tea.Model, s string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m tea.Model, keys ...tea.Msg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

func TestWizard_TerminalOnlySkipsTelegram(t *testing.T) {
	dir := t.TempDir()
	var m tea.Model = initialModel(dir, getSteps())

	// Channel: second choice.
	m = press(m, down, enter)
	got := m.(model)
	_, isEngineStep := got.steps[got.currentStep].(*EngineCommandStep)
	require.True(t, isEngineStep, "telegram steps should be skipped, at step %d", got.currentStep)

	m = typeText(m, "sh")
	m = press(m, enter)
	m = typeText(m, "30")
	m = press(m, enter)

	// Session store: sqlite is the second item.
	m = press(m, down, enter)

	// Finalization, save and init run on their own messages.
	m = press(m, nextMsg{}, nextMsg{}, nextMsg{})

	final := m.(model)
	assert.Equal(t, len(final.steps), final.currentStep)

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "false", env["TUSK_ENABLE_TELEGRAM"])
	assert.Equal(t, "true", env["TUSK_ENABLE_CLI"])
	assert.Equal(t, "sh", env["CLAUDE_COMMAND"])
	assert.Equal(t, "30000", env["CLAUDE_TIMEOUT_MS"])
	assert.Equal(t, "sqlite", env["TUSK_SESSION_STORE"])
	assert.NotContains(t, env, "TELEGRAM_TOKEN")

	_, err = os.Stat(filepath.Join(dir, "mcp_config.json"))
	assert.NoError(t, err)
}

func TestTelegramSteps_Validate(t *testing.T) {
	state := NewInstallState(t.TempDir())

	token := NewTelegramTokenStep()
	token, _ = token.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("nocolon")}, state, 80, 24)
	next, _ := token.Update(enter, state, 80, 24)
	require.NotNil(t, next, "malformed token must be rejected")
	assert.Contains(t, next.View(state), "<id>:<secret>")

	owner := NewTelegramOwnerStep()
	next, _ = owner.Update(enter, state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "0", state.EnvVars["TELEGRAM_OWNER_ID"])

	owner = NewTelegramOwnerStep()
	owner, _ = owner.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")}, state, 80, 24)
	next, _ = owner.Update(enter, state, 80, 24)
	assert.NotNil(t, next)
}

func TestFinalize(t *testing.T) {
	state := NewInstallState(t.TempDir())
	state.EnvVars["TUSK_ENABLE_TELEGRAM"] = "true"
	state.EnvVars["TELEGRAM_TOKEN"] = "1:abc"

	finalize(state)

	assert.Equal(t, "false", state.EnvVars["TUSK_ENABLE_CLI"])
	assert.Equal(t, "memory", state.EnvVars["TUSK_SESSION_STORE"])
	assert.Equal(t, "claude", state.EnvVars["CLAUDE_COMMAND"])
	assert.Equal(t, "0", state.EnvVars["TUSK_DEBUG"])
}

func TestSaveEnv_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	state := NewInstallState(dir)
	state.EnvVars["TELEGRAM_TOKEN"] = "1:secret with spaces"

	require.NoError(t, saveEnv(state))

	info, err := os.Stat(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "1:secret with spaces", env["TELEGRAM_TOKEN"])

	assert.Error(t, saveEnv(state))
}
