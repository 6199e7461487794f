package tui

import (
	"fmt"
	"strings"

	"bhmc/ggbridge/internal/services/auth"
	"bhmc/ggbridge/internal/tui/components"
	"bhmc/ggbridge/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

type keySavedMsg struct{}

type keySaveErrorMsg struct {
	err error
}

// --- Auth login model ---

type authLoginModel struct {
	provider string
	store    auth.Store

	keyInput textinput.Model

	width  int
	height int

	err      error
	saved    bool
	quitting bool
}

// AuthLoginResult holds the outcome of the login TUI.
type AuthLoginResult struct {
	Saved bool
}

// RunAuthLogin starts the interactive auth login TUI.
func RunAuthLogin(provider string, store auth.Store) (*AuthLoginResult, error) {
	ti := textinput.New()
	ti.Placeholder = "paste your API key here"
	ti.Focus()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Width = 50

	m := authLoginModel{
		provider: provider,
		store:    store,
		keyInput: ti,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run auth login: %w", err)
	}

	final := result.(authLoginModel)
	if final.quitting && !final.saved {
		return nil, nil
	}
	return &AuthLoginResult{Saved: final.saved}, nil
}

func (m authLoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case keySavedMsg:
		m.saved = true
		return m, tea.Quit

	case keySaveErrorMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m authLoginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			m.err = fmt.Errorf("API key cannot be empty")
			return m, nil
		}
		m.err = nil
		return m, m.saveKey(key)
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	m.err = nil
	return m, cmd
}

func (m authLoginModel) saveKey(key string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.SetKey(m.provider, key); err != nil {
			return keySaveErrorMsg{err: err}
		}
		return keySavedMsg{}
	}
}

func (m authLoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth login", m.provider)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "enter", Desc: "save"},
		{Key: "esc", Desc: "cancel"},
	})

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	contentH := max(m.height-headerH-footerH, 1)

	title := styles.Title.Render("Provider API Key")
	hint := styles.MutedText.Render("Enter your " + m.provider + " API key")

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.ErrorText.Render(m.err.Error())
	}

	card := lipgloss.JoinVertical(lipgloss.Left,
		title,
		hint,
		"",
		m.keyInput.View(),
		errLine,
	)

	content := lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, card)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}
