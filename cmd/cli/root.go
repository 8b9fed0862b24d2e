// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"crmstack/internal/config"
	"crmstack/internal/project"
	"crmstack/internal/runner"
	"crmstack/internal/ssh"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sshManager *ssh.Manager

	statusColor        = color.New(color.FgCyan)
	errorColor         = color.New(color.FgRed)
	stepColor          = color.New(color.FgYellow)
	successColor       = color.New(color.FgGreen)
	statusUpColor      = color.New(color.FgGreen)
	statusDownColor    = color.New(color.FgRed)
	statusPartialColor = color.New(color.FgYellow)
	statusErrorColor   = color.New(color.FgMagenta)
	identifierColor    = color.New(color.FgBlue)
	dimColor           = color.New(color.Faint)
)

var (
	flagEnv        string
	flagProjectDir string
)

var rootCmd = &cobra.Command{
	Use:   "crmstack",
	Short: "CRM bot stack CLI",
	Long: `A command-line interface for the CRM WhatsApp bot development stack.

Wraps the project's compose lifecycle (build, up, down, migrations, seeding,
tests) on the local machine or on remote hosts configured in
~/.config/crmstack/config.yaml.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to ensure config directory: %w", err)
		}
		sshManager = ssh.NewManager()
		project.InitSSHManager(sshManager)
		runner.InitSSHManager(sshManager)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if sshManager != nil {
			sshManager.CloseAll()
		}
		return nil
	},
}

func RunCLI() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEnv, "env", "e", project.LocalName,
		"target environment: 'local' or a configured remote name")
	rootCmd.PersistentFlags().StringVar(&flagProjectDir, "project-dir", "",
		"override the local project directory (default: discover from cwd)")
	_ = rootCmd.RegisterFlagCompletionFunc("env", envCompletionFunc)

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(upDBCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(downVCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(restartAppCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(closeShiftsCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dbShellCmd)
	rootCmd.AddCommand(testCmd)
}
