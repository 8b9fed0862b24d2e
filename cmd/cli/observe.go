// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"crmstack/internal/logger"
	"crmstack/internal/runner"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var (
	flagLogTail  int
	flagNoFollow bool
)

var psCmd = &cobra.Command{
	Use:     "ps",
	Short:   "Show the status of the stack's containers",
	Example: "  crmstack ps\n  crmstack ps --env server1",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")
		s.Suffix = fmt.Sprintf(" Checking status for %s...", identifierColor.Sprint(env.Identifier()))
		s.Start()

		info := runner.GetStatus(env, cfg)
		s.Stop()

		fmt.Printf("Stack: %s ", identifierColor.Sprint(env.Identifier()))
		switch info.OverallStatus {
		case runner.StatusUp:
			statusUpColor.Printf("[%s]\n", info.OverallStatus)
		case runner.StatusDown:
			statusDownColor.Printf("[%s]\n", info.OverallStatus)
		case runner.StatusPartial:
			statusPartialColor.Printf("[%s]\n", info.OverallStatus)
		case runner.StatusError:
			statusErrorColor.Printf("[%s]\n", info.OverallStatus)
			if info.Error != nil {
				logger.Errorf("  Error checking status: %v", info.Error)
			}
			os.Exit(1)
		default:
			fmt.Printf("[%s]\n", info.OverallStatus)
		}

		if info.OverallStatus != runner.StatusDown && len(info.Containers) > 0 {
			fmt.Println("  Containers:")
			fmt.Printf("    %-15s %-35s %s\n", "SERVICE", "CONTAINER NAME", "STATUS")
			fmt.Printf("    %-15s %-35s %s\n", strings.Repeat("-", 15), strings.Repeat("-", 35), strings.Repeat("-", 6))
			for _, c := range info.Containers {
				isUp := strings.Contains(strings.ToLower(c.Status), "running") ||
					strings.Contains(strings.ToLower(c.Status), "healthy") ||
					strings.HasPrefix(c.Status, "Up")

				statusPrinter := statusDownColor
				if isUp {
					statusPrinter = statusUpColor
				}
				fmt.Printf("    %-15s %-35s %s\n", c.Service, c.Name, statusPrinter.Sprint(c.Status))
			}
		}
	},
}

var logsCmd = &cobra.Command{
	Use:               "logs [service]",
	Short:             "Follow service logs (all services when none given)",
	Example:           "  crmstack logs\n  crmstack logs app\n  crmstack logs app --tail 500 --no-follow",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: serviceCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		requireService(env, service)

		step := runner.LogsStep(env, cfg, service, !flagNoFollow, flagLogTail)
		if err := runSequence(env, []runner.Step{step}); err != nil {
			// Ctrl-C while following ends the underlying command; still
			// propagate its status.
			os.Exit(runner.ExitCodeFromError(err))
		}
	},
}

func init() {
	logsCmd.Flags().IntVar(&flagLogTail, "tail", 0, "number of log lines to show (default from config)")
	logsCmd.Flags().BoolVar(&flagNoFollow, "no-follow", false, "dump logs and exit instead of following")
}
