// SPDX-License-Identifier: Apache-2.0

// Package ui implements the interactive terminal dashboard: pick an
// environment, inspect stack status and run the usual lifecycle actions
// without leaving the terminal.
package ui

import (
	"fmt"
	"strings"

	"crmstack/internal/config"
	"crmstack/internal/project"
	"crmstack/internal/runner"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type uiState int

const (
	stateLoading uiState = iota
	stateMenu
	stateConfirm
	stateRunning
	stateDone
	stateError
)

// Model is the top-level bubbletea model of the dashboard.
type Model struct {
	state      uiState
	keys       keyMap
	help       help.Model
	spinner    spinner.Model
	viewport   viewport.Model
	projectDir string // --project-dir override, may be empty

	cfg config.Config
	env project.Environment

	status       runner.RuntimeInfo
	statusLoaded bool

	cursor        int
	pendingAction action // action awaiting confirmation

	// running action
	activeAction string
	currentStep  string
	output       strings.Builder
	events       chan seqEventMsg
	runErr       error

	err    error
	width  int
	height int
}

// NewModel creates the dashboard model. projectDir overrides project
// discovery when non-empty.
func NewModel(projectDir string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	return Model{
		state:      stateLoading,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		viewport:   viewport.New(80, 12),
		projectDir: projectDir,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadProjectCmd(m.projectDir))
}

// envNames returns the selectable environments: local first, then the
// configured remotes in declaration order.
func (m Model) envNames() []string {
	names := []string{project.LocalName}
	for _, r := range m.cfg.Remotes {
		names = append(names, r.Name)
	}
	return names
}

// nextEnvName cycles to the environment after the current one.
func (m Model) nextEnvName() string {
	names := m.envNames()
	for i, name := range names {
		if name == m.env.Name {
			return names[(i+1)%len(names)]
		}
	}
	return project.LocalName
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width - 4
		if msg.Height > 14 {
			m.viewport.Height = msg.Height - 10
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case projectLoadedMsg:
		m.cfg = msg.cfg
		m.env = msg.env
		m.state = stateMenu
		return m, statusCmd(m.env, m.cfg)

	case envResolvedMsg:
		m.env = msg.env
		m.statusLoaded = false
		return m, statusCmd(m.env, m.cfg)

	case statusMsg:
		m.status = msg.info
		m.statusLoaded = true
		return m, nil

	case seqEventMsg:
		return m.handleSeqEvent(msg)

	case errorMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case stateMenu:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(menuActions)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Env):
			return m, resolveEnvCmd(m.cfg, m.nextEnvName(), m.projectDir)
		case key.Matches(msg, m.keys.Refresh):
			m.statusLoaded = false
			return m, statusCmd(m.env, m.cfg)
		case key.Matches(msg, m.keys.Run):
			act := menuActions[m.cursor]
			if act.name == "down-v" {
				// Destroys the database volume; make the user say so.
				m.pendingAction = act
				m.state = stateConfirm
				return m, nil
			}
			return m.startAction(act)
		}

	case stateConfirm:
		switch {
		case msg.String() == "y", key.Matches(msg, m.keys.Run):
			act := m.pendingAction
			m.pendingAction = action{}
			return m.startAction(act)
		case msg.String() == "n", key.Matches(msg, m.keys.Back):
			m.pendingAction = action{}
			m.state = stateMenu
			return m, nil
		}

	case stateDone, stateError:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Run) {
			m.state = stateMenu
			m.err = nil
			m.runErr = nil
			m.output.Reset()
			m.statusLoaded = false
			return m, statusCmd(m.env, m.cfg)
		}
	}

	return m, nil
}

func (m Model) startAction(act action) (tea.Model, tea.Cmd) {
	events, waitCmd, err := startSequence(act.name, m.env, m.cfg)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}

	m.state = stateRunning
	m.activeAction = act.title
	m.currentStep = ""
	m.output.Reset()
	m.runErr = nil
	m.events = events
	m.viewport.SetContent("")

	return m, tea.Batch(m.spinner.Tick, waitCmd)
}

func (m Model) handleSeqEvent(msg seqEventMsg) (tea.Model, tea.Cmd) {
	if m.state != stateRunning {
		return m, nil
	}

	if msg.step != "" {
		m.currentStep = msg.step
		m.output.WriteString(titleStyle.Render("== "+msg.step+" ==") + "\n")
	}
	if msg.chunk != "" {
		m.output.WriteString(msg.chunk)
	}

	m.viewport.SetContent(m.output.String())
	m.viewport.GotoBottom()

	if msg.done {
		m.runErr = msg.err
		m.state = stateDone
		m.events = nil
		return m, nil
	}

	return m, waitForSeqEvent(m.events)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("crmstack") + " " + subtleStyle.Render("dev stack dashboard") + "\n\n")

	switch m.state {
	case stateLoading:
		b.WriteString(m.spinner.View() + " Loading project...\n")

	case stateMenu:
		b.WriteString(m.viewEnvLine())
		b.WriteString(m.viewStatus())
		b.WriteString("\n")
		for i, act := range menuActions {
			cursor := "  "
			line := act.title
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
				line = selectedStyle.Render(line)
			}
			b.WriteString(fmt.Sprintf("%s%s\n", cursor, line))
		}
		b.WriteString("\n" + m.help.View(m.keys))

	case stateConfirm:
		b.WriteString(m.viewEnvLine())
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("This will remove all containers AND volumes, destroying the database.") + "\n")
		b.WriteString(fmt.Sprintf("Run %s on %s?\n\n", selectedStyle.Render(m.pendingAction.title), selectedStyle.Render(m.env.Name)))
		b.WriteString(subtleStyle.Render("y/enter: confirm · n/esc: cancel") + "\n")

	case stateRunning:
		b.WriteString(m.viewEnvLine())
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.activeAction))
		if m.currentStep != "" {
			b.WriteString(subtleStyle.Render(" · " + m.currentStep))
		}
		b.WriteString("\n\n")
		b.WriteString(outputStyle.Render(m.viewport.View()) + "\n")

	case stateDone:
		b.WriteString(m.viewEnvLine())
		if m.runErr != nil {
			b.WriteString(errorStyle.Render("✗ "+m.activeAction+" failed: "+m.runErr.Error()) + "\n\n")
		} else {
			b.WriteString(successStyle.Render("✓ "+m.activeAction+" finished") + "\n\n")
		}
		b.WriteString(outputStyle.Render(m.viewport.View()) + "\n")
		b.WriteString(subtleStyle.Render("esc: back · q: quit") + "\n")

	case stateError:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		b.WriteString(subtleStyle.Render("esc: back · q: quit") + "\n")
	}

	return b.String()
}

func (m Model) viewEnvLine() string {
	envLabel := m.env.Name
	if m.env.IsRemote {
		envLabel += " (remote)"
	}
	return subtleStyle.Render("env: ") + selectedStyle.Render(envLabel) +
		subtleStyle.Render("  root: "+m.env.Root) + "\n"
}

func (m Model) viewStatus() string {
	if !m.statusLoaded {
		return subtleStyle.Render("status: ") + m.spinner.View() + " checking...\n"
	}

	var b strings.Builder
	overall := string(m.status.OverallStatus)
	b.WriteString(subtleStyle.Render("status: ") + statusStyle(overall).Render(overall))
	if m.status.Error != nil {
		b.WriteString(" " + errorStyle.Render(m.status.Error.Error()))
	}
	b.WriteString("\n")

	for _, c := range m.status.Containers {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", c.Service, statusStyle(stateLabel(c.Status)).Render(c.Status)))
	}
	return b.String()
}

// stateLabel maps a raw container status string onto the coarse labels the
// styles understand.
func stateLabel(status string) string {
	if containerStatusUp(status) {
		return "UP"
	}
	return "DOWN"
}

// containerStatusUp mirrors the runner's container classification for
// display purposes.
func containerStatusUp(status string) bool {
	lower := strings.ToLower(status)
	return strings.Contains(lower, "running") ||
		strings.Contains(lower, "healthy") ||
		strings.HasPrefix(status, "Up")
}
