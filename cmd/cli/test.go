// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"

	"crmstack/internal/logger"
	"crmstack/internal/runner"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test [pytest-args...]",
	Short: "Rebuild the app image and run the pytest suite in a one-off container",
	Long: `Rebuilds the app image and runs pytest inside a fresh container.
TEST_DATABASE_URL and PYTHONPATH are forwarded from the calling shell so the
suite can target a dedicated test database. Extra arguments go to pytest
verbatim.`,
	Example: "  crmstack test\n  crmstack test -- -x tests/test_shifts.py\n  TEST_DATABASE_URL=... crmstack test",
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env, cfg := resolveTargetEnv()

		sequence := runner.TestSequence(env, cfg, args)
		if err := runSequence(env, sequence); err != nil {
			logger.Errorf("Test run failed on %s: %v", env.Identifier(), err)
			os.Exit(runner.ExitCodeFromError(err))
		}
		successColor.Println("Test suite passed.")
	},
}
