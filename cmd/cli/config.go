// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"strings"

	"crmstack/internal/config"
	"crmstack/internal/logger"

	"github.com/spf13/cobra"
)

// configCmd is the parent command for configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage crmstack configuration",
	Long: `Provides subcommands to manage the crmstack configuration:
the project root, the container engine and remote host entries.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		path, _ := config.DefaultConfigPath()
		fmt.Printf("Config file:   %s\n", identifierColor.Sprint(path))
		if cfg.ProjectRoot != "" {
			fmt.Printf("Project root:  %s\n", cfg.ProjectRoot)
		} else {
			fmt.Printf("Project root:  %s\n", dimColor.Sprint("[discovered from cwd]"))
		}
		fmt.Printf("Engine:        %s\n", cfg.Engine)
		fmt.Printf("App service:   %s\n", cfg.AppService)
		fmt.Printf("DB service:    %s\n", cfg.DBService)
		fmt.Printf("Database URL:  %s\n", cfg.DatabaseURL)
		fmt.Printf("Log tail:      %d\n", cfg.LogTail)

		if len(cfg.Remotes) == 0 {
			fmt.Println("Remotes:       none")
			return
		}
		fmt.Println("Remotes:")
		for _, r := range cfg.Remotes {
			details := fmt.Sprintf("%s@%s", r.User, r.Hostname)
			if r.Port != 0 && r.Port != 22 {
				details += fmt.Sprintf(":%d", r.Port)
			}
			fmt.Printf("  %s (%s)\n", identifierColor.Sprint(r.Name), details)
			fmt.Printf("    Project root: %s\n", r.Root)
			if r.KeyPath != "" {
				fmt.Printf("    Key path:     %s\n", r.KeyPath)
			}
			if r.Password != "" {
				fmt.Printf("    Password:     %s\n", errorColor.Sprint("[set, stored insecurely]"))
			}
		}
	},
}

var configSetRootCmd = &cobra.Command{
	Use:   "set-root <path>",
	Short: "Set the local project root directory",
	Long: `Sets the directory holding the project's compose file. Use an absolute
path or a path starting with '~/'. An empty string reverts to discovering
the project from the current directory:
  crmstack config set-root ""`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootPath := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if rootPath != "" && !strings.HasPrefix(rootPath, "/") && !strings.HasPrefix(rootPath, "~/") {
			logger.Error("Error: Path must be absolute or start with '~/'")
			os.Exit(1)
		}

		cfg.ProjectRoot = rootPath

		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		if rootPath == "" {
			successColor.Println("Project root reset; the project is discovered from the current directory.")
		} else {
			successColor.Printf("Project root set to: %s\n", rootPath)
		}
	},
}

var configSetEngineCmd = &cobra.Command{
	Use:   "set-engine <engine>",
	Short: "Set the container engine (docker or podman)",
	Long: `Sets the container engine used for compose operations.

Examples:
  crmstack config set-engine docker
  crmstack config set-engine podman`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := strings.ToLower(args[0])

		if engine != "docker" && engine != "podman" {
			logger.Error("Error: Engine must be either 'docker' or 'podman'")
			os.Exit(1)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		cfg.Engine = engine

		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		successColor.Printf("Container engine set to: %s\n", engine)
	},
}

var configSetDatabaseURLCmd = &cobra.Command{
	Use:   "set-database-url <url>",
	Short: "Set the database URL used for readiness checks and db-shell",
	Long: `Sets the PostgreSQL URL the readiness probe connects to after up-db and
from which db-shell derives its credentials. The DATABASE_URL environment
variable still takes precedence when set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		cfg.DatabaseURL = args[0]

		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		successColor.Println("Database URL updated.")
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetRootCmd)
	configCmd.AddCommand(configSetEngineCmd)
	configCmd.AddCommand(configSetDatabaseURLCmd)

	rootCmd.AddCommand(configCmd)
}
