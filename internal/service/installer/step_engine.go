package installer

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultEngineCommand = "claude"

// EngineCommandStep collects the engine binary name or path
type EngineCommandStep struct {
	input   textinput.Model
	warning string
}

func NewEngineCommandStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = defaultEngineCommand

	return &EngineCommandStep{input: ti}
}

func (s *EngineCommandStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *EngineCommandStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			command := strings.TrimSpace(s.input.Value())
			if command == "" {
				command = defaultEngineCommand
			}

			// Warn once, accept on the second enter.
			if _, err := exec.LookPath(command); err != nil && s.warning == "" {
				s.warning = fmt.Sprintf("%q was not found in PATH. Press enter again to keep it anyway.", command)
				return s, nil
			}

			state.EnvVars["CLAUDE_COMMAND"] = command
			return nil, nil
		}
		s.warning = ""
	}
	return s, cmd
}

func (s *EngineCommandStep) View(state *InstallState) string {
	view := "Engine command (binary name or absolute path):\n\n" + s.input.View() + "\n\n"
	if s.warning != "" {
		view += errorStyle.Render(s.warning) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}

// TimeoutStep collects the per-turn engine timeout in seconds
type TimeoutStep struct {
	input textinput.Model
	err   string
}

func NewTimeoutStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 6
	ti.Width = 10
	ti.Placeholder = "120"

	return &TimeoutStep{input: ti}
}

func (s *TimeoutStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TimeoutStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			value := strings.TrimSpace(s.input.Value())
			if value == "" {
				value = "120"
			}
			seconds, err := strconv.Atoi(value)
			if err != nil || seconds <= 0 {
				s.err = "enter a positive number of seconds"
				return s, nil
			}
			state.EnvVars["CLAUDE_TIMEOUT_MS"] = strconv.Itoa(seconds * 1000)
			return nil, nil
		}
	}
	return s, cmd
}

func (s *TimeoutStep) View(state *InstallState) string {
	view := "How many seconds may a single reply take?\n\n" + s.input.View() + "\n\n"
	if s.err != "" {
		view += errorStyle.Render(s.err) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}

// SessionStoreStep selects where continuity tokens are kept
type SessionStoreStep struct {
	list list.Model
}

func NewSessionStoreStep() Step {
	items := []list.Item{
		item{id: "memory", title: "In memory", desc: "Conversations start fresh after a restart"},
		item{id: "sqlite", title: "SQLite", desc: "Conversations resume after a restart"},
	}
	l := list.New(items, list.NewDefaultDelegate(), 60, 12)
	l.Title = "Where should sessions be stored?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	return &SessionStoreStep{list: l}
}

func (s *SessionStoreStep) Init() tea.Cmd {
	return nil
}

func (s *SessionStoreStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if width > 0 && height > 0 {
		s.list.SetSize(width, height-4)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if it, ok := s.list.SelectedItem().(item); ok {
			state.EnvVars["TUSK_SESSION_STORE"] = it.id
			return nil, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *SessionStoreStep) View(state *InstallState) string {
	return s.list.View()
}
