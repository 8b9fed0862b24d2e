// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// runLocalStep executes a step in the local project directory.
// Output handling follows cliMode as described on StreamStep.
func runLocalStep(step Step, cliMode bool, outChan chan<- OutputLine, errChan chan<- error) {
	cmd := exec.Command(step.Command, step.Args...)
	cmd.Dir = step.Env.Root
	if len(step.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), step.ExtraEnv...)
	}
	cmdDesc := fmt.Sprintf("local step '%s'", step.Name)

	var cmdErr error
	if cliMode {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to start %s: %w", cmdDesc, err)}
			return
		}
		cmdErr = cmd.Wait()
	} else {
		stdoutPipe, err := cmd.StdoutPipe()
		if err != nil {
			errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get stdout pipe for %s: %w", cmdDesc, err)}
			return
		}
		stderrPipe, err := cmd.StderrPipe()
		if err != nil {
			errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to get stderr pipe for %s: %w", cmdDesc, err)}
			return
		}

		if err := cmd.Start(); err != nil {
			errChan <- &StepError{Step: step.Name, ExitCode: -1, Err: fmt.Errorf("failed to start %s: %w", cmdDesc, err)}
			return
		}

		outputDone := make(chan struct{}, 2) // Wait for both streamPipe goroutines
		go streamPipe(stdoutPipe, outChan, outputDone, false)
		go streamPipe(stderrPipe, outChan, outputDone, true)

		cmdErr = cmd.Wait()

		// Wait for pipe readers to finish *after* command Wait returns
		<-outputDone
		<-outputDone
	}

	if cmdErr != nil {
		errChan <- &StepError{Step: step.Name, ExitCode: localExitCode(cmdErr), Err: cmdErr}
	}
}

// localExitCode extracts the exit code from a Wait error, -1 if unavailable.
func localExitCode(err error) int {
	if exitError, ok := err.(*exec.ExitError); ok {
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return -1
}
