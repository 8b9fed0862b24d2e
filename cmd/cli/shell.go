// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"

	"crmstack/internal/runner"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:               "shell [service]",
	Short:             "Open an interactive shell inside a running container",
	Example:           "  crmstack shell\n  crmstack shell db\n  crmstack shell --env server1",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: serviceCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		requireService(env, service)
		runInteractiveStep(env, runner.ShellStep(env, cfg, service))
	},
}

var dbShellCmd = &cobra.Command{
	Use:     "db-shell",
	Short:   "Open a psql session inside the database container",
	Example: "  crmstack db-shell",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		step, err := runner.DBShellStep(env, cfg)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		runInteractiveStep(env, step)
	},
}
