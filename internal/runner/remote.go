// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"crmstack/internal/util"

	gossh "golang.org/x/crypto/ssh"
)

// remoteCommandString builds the shell command executed in the SSH session:
// cd into the resolved project root, apply extra environment assignments,
// then run the command with each argument quoted.
func remoteCommandString(step Step) string {
	parts := []string{"cd", util.QuoteArgForShell(step.Env.Root), "&&"}
	if prefix := util.FormatEnvPrefix(step.ExtraEnv); prefix != "" {
		parts = append(parts, strings.TrimRight(prefix, " "))
	}
	parts = append(parts, step.Command)
	for _, arg := range step.Args {
		parts = append(parts, util.QuoteArgForShell(arg))
	}
	return strings.Join(parts, " ")
}

// runRemoteStep executes a step on the environment's remote host.
// Output handling follows cliMode as described on StreamStep.
func runRemoteStep(step Step, cliMode bool, outChan chan<- OutputLine, errChan chan<- error) {
	cmdDesc := fmt.Sprintf("step '%s' on %s", step.Name, step.Env.Name)

	if sshManager == nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("ssh manager not initialized for %s", cmdDesc)}
		return
	}
	if step.Env.Remote == nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("internal error: remote config is nil for %s", cmdDesc)}
		return
	}

	client, err := sshManager.GetClient(*step.Env.Remote)
	if err != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, err)}
		return
	}

	session, err := client.NewSession()
	if err != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, err)}
		return
	}
	defer session.Close()

	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get ssh stdout pipe for %s: %w", cmdDesc, err)}
		return
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get ssh stderr pipe for %s: %w", cmdDesc, err)}
		return
	}

	// Request a PTY so compose output keeps color and carriage returns.
	modes := gossh.TerminalModes{
		gossh.ECHO:          0,     // disable echoing input
		gossh.TTY_OP_ISPEED: 14400, // input speed = 14.4kbaud
		gossh.TTY_OP_OSPEED: 14400, // output speed = 14.4kbaud
	}
	if err := session.RequestPty("xterm-256color", 80, 40, modes); err != nil {
		// Some servers deny PTY allocation but still run the command.
		fmt.Fprintf(os.Stderr, "Warning: Failed to request pty for %s (continuing): %v\n", cmdDesc, err)
	}

	if err := session.Start(remoteCommandString(step)); err != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to start remote command for %s: %w", cmdDesc, err)}
		return
	}

	var cmdErr error
	if cliMode {
		// Pipe remote output straight to local stdio; handles TTY output
		// (colors, \r) correctly.
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			_, _ = io.Copy(os.Stdout, stdoutPipe)
		}()
		go func() {
			defer wg.Done()
			_, _ = io.Copy(os.Stderr, stderrPipe)
		}()

		cmdErr = session.Wait()
		wg.Wait()
	} else {
		outputDone := make(chan struct{}, 2) // Wait for both streamPipe goroutines

		go streamPipe(stdoutPipe, outChan, outputDone, false)
		go streamPipe(stderrPipe, outChan, outputDone, true)

		cmdErr = session.Wait()

		// Wait for pipe readers to finish *after* Wait returns
		<-outputDone
		<-outputDone
	}

	if cmdErr != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: remoteExitCode(cmdErr), Err: cmdErr}
	}
}

// remoteExitCode extracts the exit status from an SSH wait error, -1 if
// unavailable.
func remoteExitCode(err error) int {
	if exitErr, ok := err.(*gossh.ExitError); ok {
		return exitErr.ExitStatus()
	}
	return -1
}
