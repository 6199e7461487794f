// Package tui implements the interactive dashboard: the derived phase
// view for one event, with actions runnable in place and streamed
// progress rendered live.
package tui

import (
	"context"
	"fmt"
	"strings"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/orchestrator"
	"bhmc/ggbridge/internal/phase"
	"bhmc/ggbridge/internal/tui/components"
	"bhmc/ggbridge/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

type viewLoadedMsg struct {
	view *orchestrator.EventView
	err  error
}

type runDoneMsg struct {
	err error
}

type streamStartedMsg struct {
	frames <-chan domain.ProgressEvent
	err    error
}

type frameMsg struct {
	frame domain.ProgressEvent
	open  bool
}

// --- Dashboard model ---

type dashboardModel struct {
	orch    *orchestrator.Orchestrator
	eventID int64

	view   *orchestrator.EventView
	cursor int

	// phaseOverride is the phase being browsed; 0 follows the derived
	// phase.
	phaseOverride int

	running       bool
	runningAction domain.ActionName
	lastFrame     *domain.ProgressEvent
	frames        <-chan domain.ProgressEvent
	spin          spinner.Model

	err      error
	width    int
	height   int
	quitting bool
}

// RunDashboard starts the dashboard TUI for one event. It stays open
// until the user quits.
func RunDashboard(orch *orchestrator.Orchestrator, eventID int64) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Green)

	m := dashboardModel{orch: orch, eventID: eventID, spin: sp}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadView())
}

func (m dashboardModel) loadView() tea.Cmd {
	orch, eventID, override := m.orch, m.eventID, m.phaseOverride
	return func() tea.Msg {
		view, err := orch.View(context.Background(), eventID, override)
		return viewLoadedMsg{view: view, err: err}
	}
}

func (m dashboardModel) startAction(name domain.ActionName) tea.Cmd {
	orch, eventID := m.orch, m.eventID
	return func() tea.Msg {
		res, err := orch.Start(context.Background(), eventID, name)
		if err != nil {
			return runDoneMsg{err: err}
		}
		if res.Progress == nil {
			return runDoneMsg{}
		}
		frames, err := res.Progress.Subscribe()
		if err != nil {
			return runDoneMsg{err: err}
		}
		return streamStartedMsg{frames: frames}
	}
}

func waitFrame(frames <-chan domain.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		f, open := <-frames
		return frameMsg{frame: f, open: open}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case viewLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.view = msg.view
		if m.cursor >= len(m.view.Actions) {
			m.cursor = 0
		}
		return m, nil

	case runDoneMsg:
		m.running = false
		m.lastFrame = nil
		m.err = msg.err
		return m, m.loadView()

	case streamStartedMsg:
		if msg.err != nil {
			m.running = false
			m.err = msg.err
			return m, m.loadView()
		}
		m.frames = msg.frames
		return m, waitFrame(m.frames)

	case frameMsg:
		if !msg.open {
			m.running = false
			m.lastFrame = nil
			return m, m.loadView()
		}
		f := msg.frame
		m.lastFrame = &f
		return m, waitFrame(m.frames)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.running {
		// Only quitting is allowed mid-run; the action itself keeps
		// going server-side and lands in the log.
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.view != nil && m.cursor < len(m.view.Actions)-1 {
			m.cursor++
		}
	case "left", "h":
		return m.browsePhase(-1)
	case "right", "l":
		return m.browsePhase(1)
	case "d":
		m.phaseOverride = 0
		return m, m.loadView()
	case "r":
		return m, m.loadView()
	case "enter":
		if m.view == nil || m.cursor >= len(m.view.Actions) {
			return m, nil
		}
		row := m.view.Actions[m.cursor]
		if !row.Enabled {
			m.err = fmt.Errorf("%s is not enabled yet", row.Spec.Name)
			return m, nil
		}
		m.err = nil
		m.running = true
		m.runningAction = row.Spec.Name
		m.lastFrame = nil
		return m, tea.Batch(m.spin.Tick, m.startAction(row.Spec.Name))
	}
	return m, nil
}

func (m dashboardModel) browsePhase(delta int) (tea.Model, tea.Cmd) {
	if m.view == nil {
		return m, nil
	}
	target := m.view.Phase.CurrentPhase + delta
	if _, ok := phase.Find(target); !ok {
		return m, nil
	}
	m.phaseOverride = target
	m.cursor = 0
	return m, m.loadView()
}

// --- View ---

func (m dashboardModel) View() string {
	if m.width == 0 || m.height == 0 || m.quitting {
		return ""
	}

	header := components.Header(m.width, "dashboard", fmt.Sprintf("event %d", m.eventID))
	footer := components.Footer(m.width, m.footerBindings())

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	contentH := max(m.height-headerH-footerH, 1)

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderContent(contentH), footer)
}

func (m dashboardModel) footerBindings() []components.KeyBinding {
	if m.running {
		return []components.KeyBinding{{Key: "q", Desc: "quit"}}
	}
	return []components.KeyBinding{
		{Key: "↑/↓", Desc: "select"},
		{Key: "enter", Desc: "run"},
		{Key: "←/→", Desc: "phase"},
		{Key: "d", Desc: "derived"},
		{Key: "r", Desc: "refresh"},
		{Key: "q", Desc: "quit"},
	}
}

func (m dashboardModel) renderContent(height int) string {
	if m.view == nil {
		card := m.spin.View() + " " + styles.MutedText.Render("loading event...")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, card)
	}

	var b strings.Builder
	b.WriteString(m.renderPhaseLine())
	b.WriteString("\n\n")
	for i, row := range m.view.Actions {
		b.WriteString(m.renderActionRow(i, row))
		b.WriteString("\n")
	}
	if m.running {
		b.WriteString("\n")
		b.WriteString(m.renderProgressLine())
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render(m.err.Error()))
	}

	card := styles.Card.Render(b.String())
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, card)
}

func (m dashboardModel) renderPhaseLine() string {
	p, _ := phase.Find(m.view.Phase.CurrentPhase)
	title := styles.Title.Render(fmt.Sprintf("Phase %d: %s", p.Number, p.Title))

	var marks []string
	if m.view.Phase.IsPhaseComplete {
		marks = append(marks, styles.SuccessText.Render("complete"))
	}
	if m.view.Phase.CanAdvanceToNext {
		marks = append(marks, styles.AccentText.Render("can advance →"))
	}
	if m.phaseOverride != 0 {
		marks = append(marks, styles.WarningText.Render("browsing"))
	}
	if len(marks) == 0 {
		return title
	}
	return title + "  " + strings.Join(marks, styles.MutedText.Render(" · "))
}

func (m dashboardModel) renderActionRow(i int, row orchestrator.ActionStatus) string {
	cursor := "  "
	if i == m.cursor {
		cursor = styles.AccentText.Render("▸ ")
	}

	name := string(row.Spec.Name)
	nameStyle := styles.Title
	if !row.Enabled {
		nameStyle = styles.MutedText
	}

	status := styles.RunIndicator(row.LastRun != nil, row.LastRun != nil && row.LastRun.IsSuccessful)
	extra := ""
	switch {
	case row.ErrorCount > 0:
		extra = "  " + styles.ErrorText.Render(fmt.Sprintf("%d errors", row.ErrorCount))
	case !row.Enabled && row.Spec.Requires != "":
		extra = "  " + styles.MutedText.Render("needs "+string(row.Spec.Requires))
	case row.Spec.Name == m.view.Phase.NextAction:
		extra = "  " + styles.AccentText.Render("next")
	}

	return fmt.Sprintf("%s%-22s %s%s", cursor, nameStyle.Render(name), status, extra)
}

func (m dashboardModel) renderProgressLine() string {
	label := m.spin.View() + " " + styles.Subtitle.Render("running "+string(m.runningAction))
	if m.lastFrame == nil {
		return label
	}

	f := m.lastFrame
	counter := ""
	switch {
	case f.TotalPlayers != nil && f.ProcessedPlayers != nil:
		counter = fmt.Sprintf("%d/%d players", *f.ProcessedPlayers, *f.TotalPlayers)
	case f.TotalTournaments != nil && f.ProcessedTournaments != nil:
		counter = fmt.Sprintf("%d/%d tournaments", *f.ProcessedTournaments, *f.TotalTournaments)
	}
	if counter != "" {
		label += "  " + styles.AccentText.Render(counter)
	}
	if f.Message != "" {
		label += "  " + styles.MutedText.Render(f.Message)
	}
	if f.Status == domain.ProgressError {
		label += "  " + styles.ErrorText.Render("error")
	}
	return label
}
