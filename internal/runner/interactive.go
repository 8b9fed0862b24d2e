// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"os"
	"os/exec"

	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

// RunInteractive executes a step with the caller's terminal attached, for
// commands like `shell` and `db-shell` that need stdin. Local steps inherit
// the process stdio; remote steps get a PTY sized to the local terminal and
// the local terminal is put into raw mode for the duration.
func RunInteractive(step Step) error {
	if step.Env.IsRemote {
		return runRemoteInteractive(step)
	}
	return runLocalInteractive(step)
}

func runLocalInteractive(step Step) error {
	cmd := exec.Command(step.Command, step.Args...)
	cmd.Dir = step.Env.Root
	if len(step.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), step.ExtraEnv...)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return &StepError{Step: step.Name, ExitCode: localExitCode(err), Err: err}
	}
	return nil
}

func runRemoteInteractive(step Step) error {
	cmdDesc := fmt.Sprintf("interactive step '%s' on %s", step.Name, step.Env.Name)

	if sshManager == nil {
		return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("ssh manager not initialized for %s", cmdDesc)}
	}
	if step.Env.Remote == nil {
		return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("internal error: remote config is nil for %s", cmdDesc)}
	}

	client, err := sshManager.GetClient(*step.Env.Remote)
	if err != nil {
		return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, err)}
	}

	session, err := client.NewSession()
	if err != nil {
		return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, err)}
	}
	defer session.Close()

	session.Stdin = os.Stdin
	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	fd := int(os.Stdin.Fd())
	width, height := 80, 40
	if term.IsTerminal(fd) {
		if w, h, sizeErr := term.GetSize(fd); sizeErr == nil {
			width, height = w, h
		}

		oldState, rawErr := term.MakeRaw(fd)
		if rawErr != nil {
			return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to put terminal into raw mode for %s: %w", cmdDesc, rawErr)}
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}

	modes := gossh.TerminalModes{
		gossh.ECHO:          1,
		gossh.TTY_OP_ISPEED: 14400,
		gossh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", height, width, modes); err != nil {
		return &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to request pty for %s: %w", cmdDesc, err)}
	}

	if err := session.Run(remoteCommandString(step)); err != nil {
		return &StepError{Step: step.Name, ExitCode: remoteExitCode(err), Err: err}
	}
	return nil
}
