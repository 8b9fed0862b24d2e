// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"sync"

	"crmstack/internal/config"
	"crmstack/internal/logger"
	"crmstack/internal/project"
	"crmstack/internal/runner"
)

// resolveTargetEnv loads the configuration and resolves the environment
// selected by the persistent --env flag. Failures are fatal.
func resolveTargetEnv() (project.Environment, config.Config) {
	cfg, err := config.LoadConfig()
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	env, err := project.Resolve(cfg, flagEnv, flagProjectDir)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Error resolving environment '%s': %v\n", flagEnv, err)
		os.Exit(1)
	}
	return env, cfg
}

// requireService rejects service names the compose file does not define
// before any engine command runs. Fatal on mismatch.
func requireService(env project.Environment, service string) {
	if err := project.ValidateService(env, service); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runAction resolves the environment, maps the action to its step sequence
// and executes it, exiting with the underlying tool's status on failure.
func runAction(action string, opts runner.SequenceOptions) {
	env, cfg := resolveTargetEnv()
	requireService(env, opts.Service)

	sequence, err := runner.SequenceFor(action, env, cfg, opts)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	statusColor.Printf("Executing '%s' on %s...\n", action, identifierColor.Sprint(env.Identifier()))

	if err := runSequence(env, sequence); err != nil {
		logger.Errorf("'%s' failed on %s: %v", action, env.Identifier(), err)
		os.Exit(runner.ExitCodeFromError(err))
	}
	successColor.Printf("'%s' completed on %s.\n", action, identifierColor.Sprint(env.Identifier()))
}

// runSequence executes steps one after another, streaming output directly to
// the terminal. The first failing step aborts the rest and its error is
// returned unwrapped so the exit code survives.
func runSequence(env project.Environment, sequence []runner.Step) error {
	for _, step := range sequence {
		stepColor.Printf("\n--- %s (%s) ---\n", step.Name, identifierColor.Sprint(env.Identifier()))

		// CLI always uses cliMode for direct output.
		outChan, errChan := runner.StreamStep(step, true)

		var stepErr error
		var wg sync.WaitGroup

		if !env.IsRemote {
			stepErr = <-errChan
			fmt.Println()
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for outputLine := range outChan {
					fmt.Fprint(os.Stdout, outputLine.Line)
				}
			}()

			stepErr = <-errChan
			wg.Wait()
			fmt.Println()
		}

		if stepErr != nil {
			return stepErr
		}
		successColor.Printf("--- %s done ---\n", step.Name)
	}
	return nil
}

// runInteractiveStep hands the terminal over to the step and exits with its
// status code on failure.
func runInteractiveStep(env project.Environment, step runner.Step) {
	statusColor.Printf("Opening %s on %s...\n", step.Name, identifierColor.Sprint(env.Identifier()))
	if err := runner.RunInteractive(step); err != nil {
		logger.Errorf("%s failed on %s: %v", step.Name, env.Identifier(), err)
		os.Exit(runner.ExitCodeFromError(err))
	}
}
