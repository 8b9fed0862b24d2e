// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"crmstack/internal/database"
	"crmstack/internal/logger"
	"crmstack/internal/runner"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var (
	flagPull      bool
	flagYes       bool
	flagDBTimeout time.Duration
)

var buildCmd = &cobra.Command{
	Use:               "build [service]",
	Short:             "Build the project's container images",
	Example:           "  crmstack build\n  crmstack build app\n  crmstack build --env server1",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: serviceCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		runAction("build", runner.SequenceOptions{Service: service})
	},
}

var upCmd = &cobra.Command{
	Use:     "up",
	Aliases: []string{"start"},
	Short:   "Start the full stack detached",
	Example: "  crmstack up\n  crmstack up --pull\n  crmstack up --env server1",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("up", runner.SequenceOptions{Pull: flagPull})
	},
}

var upDBCmd = &cobra.Command{
	Use:     "up-db",
	Short:   "Start only the database service and wait until it accepts connections",
	Example: "  crmstack up-db\n  crmstack up-db --timeout 2m",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		sequence := runner.UpDBSequence(env, cfg)
		if err := runSequence(env, sequence); err != nil {
			logger.Errorf("'up-db' failed on %s: %v", env.Identifier(), err)
			os.Exit(runner.ExitCodeFromError(err))
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")
		s.Suffix = " Waiting for database to accept connections..."
		s.Start()

		ctx, cancel := context.WithTimeout(context.Background(), flagDBTimeout)
		defer cancel()

		var waitErr error
		if env.IsRemote {
			waitErr = runner.WaitForRemoteDatabase(ctx, env, cfg, time.Second)
		} else {
			waitErr = database.WaitReady(ctx, cfg.DatabaseURL, time.Second)
		}
		s.Stop()

		if waitErr != nil {
			errorColor.Fprintf(os.Stderr, "Database did not become ready: %v\n", waitErr)
			os.Exit(1)
		}
		successColor.Println("Database is ready.")
	},
}

var downCmd = &cobra.Command{
	Use:     "down",
	Aliases: []string{"stop"},
	Short:   "Stop the stack and remove its containers",
	Example: "  crmstack down\n  crmstack down --env server1",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("down", runner.SequenceOptions{})
	},
}

var downVCmd = &cobra.Command{
	Use:   "down-v",
	Short: "Stop the stack and remove its containers AND volumes",
	Long: `Stops the stack and removes containers, networks and named volumes.
This destroys the database contents. Prompts for confirmation unless --yes
is given.`,
	Example: "  crmstack down-v\n  crmstack down-v --yes",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !flagYes {
			confirmed, err := promptConfirm("This removes all volumes including the database. Continue?")
			if err != nil {
				errorColor.Fprintf(os.Stderr, "Error reading confirmation: %v\n", err)
				os.Exit(1)
			}
			if !confirmed {
				statusColor.Println("Aborted.")
				return
			}
		}
		runAction("down-v", runner.SequenceOptions{})
	},
}

var restartCmd = &cobra.Command{
	Use:               "restart [service]",
	Short:             "Restart the stack, or a single service",
	Example:           "  crmstack restart\n  crmstack restart db",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: serviceCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		runAction("restart", runner.SequenceOptions{Service: service})
	},
}

var restartAppCmd = &cobra.Command{
	Use:     "restart-app",
	Short:   "Restart only the app service",
	Example: "  crmstack restart-app",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("restart-app", runner.SequenceOptions{})
	},
}

func init() {
	upCmd.Flags().BoolVar(&flagPull, "pull", false, "pull images before starting")
	upDBCmd.Flags().DurationVar(&flagDBTimeout, "timeout", 60*time.Second, "how long to wait for database readiness")
	downVCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the confirmation prompt")
}
