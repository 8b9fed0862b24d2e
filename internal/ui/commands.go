// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"time"

	"crmstack/internal/config"
	"crmstack/internal/database"
	"crmstack/internal/project"
	"crmstack/internal/runner"

	tea "github.com/charmbracelet/bubbletea"
)

// action is one entry of the TUI action menu.
type action struct {
	name  string // runner action name
	title string
}

// menuActions lists the non-interactive operations offered by the dashboard.
// Interactive commands (shell, db-shell) and streaming logs stay in the CLI.
var menuActions = []action{
	{"up", "Start stack"},
	{"up-db", "Start database only"},
	{"down", "Stop stack"},
	{"down-v", "Stop stack and remove volumes"},
	{"restart", "Restart stack"},
	{"restart-app", "Restart app service"},
	{"build", "Build images"},
	{"migrate", "Apply migrations"},
	{"seed", "Seed admin user"},
	{"close-shifts", "Close open shifts"},
}

// dbReadyTimeout bounds the readiness wait after up-db.
const dbReadyTimeout = 60 * time.Second

// loadProjectCmd loads the configuration and resolves the local environment.
func loadProjectCmd(projectDir string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.LoadConfig()
		if err != nil {
			return errorMsg{err}
		}
		env, err := project.LocalEnvironment(projectDir)
		if err != nil {
			return errorMsg{err}
		}
		return projectLoadedMsg{cfg: cfg, env: env}
	}
}

// statusCmd checks the stack status in the given environment.
func statusCmd(env project.Environment, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{info: runner.GetStatus(env, cfg)}
	}
}

// resolveEnvCmd resolves an environment name (used when switching with tab).
func resolveEnvCmd(cfg config.Config, name, projectDir string) tea.Cmd {
	return func() tea.Msg {
		env, err := project.Resolve(cfg, name, projectDir)
		if err != nil {
			return errorMsg{err}
		}
		return envResolvedMsg{env: env}
	}
}

// startSequence launches the action's steps in a goroutine and returns the
// event channel plus the command that waits for the first event.
func startSequence(actionName string, env project.Environment, cfg config.Config) (chan seqEventMsg, tea.Cmd, error) {
	sequence, err := runner.SequenceFor(actionName, env, cfg, runner.SequenceOptions{})
	if err != nil {
		return nil, nil, err
	}

	events := make(chan seqEventMsg, 16)

	go func() {
		defer close(events)

		for _, step := range sequence {
			events <- seqEventMsg{step: step.Name}

			outChan, errChan := runner.StreamStep(step, false)

			done := make(chan struct{})
			go func() {
				defer close(done)
				for line := range outChan {
					events <- seqEventMsg{chunk: line.Line}
				}
			}()

			stepErr := <-errChan
			<-done

			if stepErr != nil {
				events <- seqEventMsg{done: true, err: stepErr}
				return
			}
		}

		if actionName == "up-db" {
			events <- seqEventMsg{step: "Wait For Database"}
			ctx, cancel := context.WithTimeout(context.Background(), dbReadyTimeout)
			var waitErr error
			if env.IsRemote {
				waitErr = runner.WaitForRemoteDatabase(ctx, env, cfg, time.Second)
			} else {
				waitErr = database.WaitReady(ctx, cfg.DatabaseURL, time.Second)
			}
			cancel()
			if waitErr != nil {
				events <- seqEventMsg{done: true, err: waitErr}
				return
			}
		}

		events <- seqEventMsg{done: true}
	}()

	return events, waitForSeqEvent(events), nil
}

// waitForSeqEvent delivers the next sequence event to the update loop.
func waitForSeqEvent(events chan seqEventMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return seqEventMsg{done: true}
		}
		return ev
	}
}
