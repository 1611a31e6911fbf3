package installer

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TelegramTokenStep collects the Telegram bot token
type TelegramTokenStep struct {
	input textinput.Model
	err   string
}

func NewTelegramTokenStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = "123456789:ABCDEF..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return &TelegramTokenStep{
		input: ti,
	}
}

func (s *TelegramTokenStep) Skip(state *InstallState) bool {
	return !state.telegramEnabled()
}

func (s *TelegramTokenStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TelegramTokenStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			token := strings.TrimSpace(s.input.Value())
			if !strings.Contains(token, ":") {
				s.err = "a bot token looks like <id>:<secret>"
				return s, nil
			}
			state.EnvVars["TELEGRAM_TOKEN"] = token
			return nil, nil
		}
	}
	return s, cmd
}

func (s *TelegramTokenStep) View(state *InstallState) string {
	view := "Enter your Telegram Bot Token:\n\n" + s.input.View() + "\n\n"
	if s.err != "" {
		view += errorStyle.Render(s.err) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}

// TelegramOwnerStep collects the Telegram owner ID
type TelegramOwnerStep struct {
	input textinput.Model
	err   string
}

func NewTelegramOwnerStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 40
	ti.Placeholder = "123456789"
	ti.EchoMode = textinput.EchoNormal

	return &TelegramOwnerStep{
		input: ti,
	}
}

func (s *TelegramOwnerStep) Skip(state *InstallState) bool {
	return !state.telegramEnabled()
}

func (s *TelegramOwnerStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TelegramOwnerStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			value := strings.TrimSpace(s.input.Value())
			if value == "" {
				value = "0"
			}
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				s.err = "the owner id is a number"
				return s, nil
			}
			state.EnvVars["TELEGRAM_OWNER_ID"] = value
			return nil, nil
		}
	}
	return s, cmd
}

func (s *TelegramOwnerStep) View(state *InstallState) string {
	view := "Enter your Telegram User ID (Owner):\n\n" +
		s.input.View() + "\n\n" +
		hintStyle.Render("Leave empty to answer everyone who writes to the bot.") + "\n\n"
	if s.err != "" {
		view += errorStyle.Render(s.err) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}
