// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"crmstack/internal/runner"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [revision]",
	Short: "Apply alembic migrations inside the running app container",
	Long: `Runs 'alembic upgrade <revision>' inside the app container. The revision
defaults to 'head'. The stack (or at least the app and db services) must be
running.`,
	Example: "  crmstack migrate\n  crmstack migrate abc123\n  crmstack migrate --env server1",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		revision := ""
		if len(args) == 1 {
			revision = args[0]
		}
		runAction("migrate", runner.SequenceOptions{Revision: revision})
	},
}

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Create the admin user(s) from ADMIN_PHONE(S)",
	Example: "  crmstack seed",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("seed", runner.SequenceOptions{})
	},
}

var closeShiftsCmd = &cobra.Command{
	Use:     "close-shifts",
	Short:   "Force-close any open work shifts",
	Example: "  crmstack close-shifts",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("close-shifts", runner.SequenceOptions{})
	},
}
