// SPDX-License-Identifier: Apache-2.0

// Package runner executes the compose-wrapping operations against an
// environment. Every operation is a sequence of named steps; each step is
// one external command whose exit status is propagated to the caller.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"crmstack/internal/project"
	"crmstack/internal/ssh"
)

var sshManager *ssh.Manager

// InitSSHManager sets the package-level SSH manager instance.
func InitSSHManager(manager *ssh.Manager) {
	if sshManager != nil {
		return
	}
	sshManager = manager
}

// Step defines one external command run in the project directory of an
// environment.
type Step struct {
	Name     string
	Command  string
	Args     []string
	Env      project.Environment
	ExtraEnv []string // KEY=VALUE pairs added to the command's environment
}

// OutputLine is a chunk of command output for channel-streaming mode.
type OutputLine struct {
	Line    string
	IsError bool // True if the chunk came from stderr
}

// StepError wraps a failed step and carries the underlying exit code so the
// CLI can exit with the same status as the wrapped tool. ExitCode is -1
// when the command failed before producing one.
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("step '%s' exited with status %d: %v", e.Step, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("step '%s' failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ExitCodeFromError extracts the exit code carried by a StepError anywhere
// in err's chain. Returns 1 for non-step errors, 0 for nil.
func ExitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) && stepErr.ExitCode >= 0 {
		return stepErr.ExitCode
	}
	return 1
}

// StreamStep executes a single step in its environment.
// If cliMode is true, output goes directly to os.Stdout/Stderr.
// If cliMode is false, output is sent in chunks over the returned channel.
// The error channel receives at most one error and both channels are closed
// when the step finishes.
func StreamStep(step Step, cliMode bool) (<-chan OutputLine, <-chan error) {
	// Buffer slightly for channel mode to prevent blocking on rapid output
	outChan := make(chan OutputLine, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(outChan)
		defer close(errChan)

		if step.Env.IsRemote {
			runRemoteStep(step, cliMode, outChan, errChan)
		} else {
			runLocalStep(step, cliMode, outChan, errChan)
		}
	}()

	return outChan, errChan
}

// streamPipe reads raw chunks from the pipe and sends them over outChan.
// Raw chunks (including control characters) are needed by the TUI viewport.
func streamPipe(pipe io.Reader, outChan chan<- OutputLine, doneChan chan<- struct{}, isError bool) {
	defer func() { doneChan <- struct{}{} }()
	buf := make([]byte, 1024)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			outChan <- OutputLine{Line: string(buf[:n]), IsError: isError}
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Pipe read error (%v): %v\n", isError, err)
			}
			break
		}
	}
}
