// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"os"

	"crmstack/internal/project"
	"crmstack/internal/runner"
	"crmstack/internal/ssh"
	"crmstack/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTUI initializes and runs the Bubble Tea dashboard.
func RunTUI() {
	sshManager := ssh.NewManager()
	project.InitSSHManager(sshManager)
	runner.InitSSHManager(sshManager)
	defer sshManager.CloseAll()

	m := ui.NewModel("")
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
