// SPDX-License-Identifier: Apache-2.0

// Package cli's remote.go file implements commands for managing remote host
// entries: adding, listing, removing, checking and importing from
// ~/.ssh/config.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"crmstack/internal/config"
	"crmstack/internal/logger"
	"crmstack/internal/project"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var reader = bufio.NewReader(os.Stdin)

// remoteCmd is the parent command for remote host subcommands.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage remote host configurations",
	Long: `Add, list, remove, check or import remote hosts that run a copy of the
project. Remote hosts are reached over SSH and the usual lifecycle commands
accept them via --env <name>.`,
}

var flagCheck bool

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured remote hosts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if len(cfg.Remotes) == 0 {
			fmt.Println("No remote hosts configured.")
			return
		}

		var reachability map[string]error
		if flagCheck {
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Color("cyan")
			s.Suffix = " Checking remote connectivity..."
			s.Start()
			reachability = project.CheckRemotes(cfg)
			s.Stop()
		}

		statusColor.Println("Configured remote hosts:")
		for i, r := range cfg.Remotes {
			details := fmt.Sprintf("%s@%s", r.User, r.Hostname)
			if r.Port != 0 && r.Port != 22 {
				details += fmt.Sprintf(":%d", r.Port)
			}
			fmt.Printf("%d: %s (%s)\n", i+1, identifierColor.Sprint(r.Name), details)
			fmt.Printf("   Project root: %s\n", r.Root)
			if r.KeyPath != "" {
				fmt.Printf("   Key path:     %s\n", r.KeyPath)
			}
			if r.Password != "" {
				fmt.Printf("   Password:     %s\n", errorColor.Sprint("[set, stored insecurely]"))
			}
			if flagCheck {
				if checkErr := reachability[r.Name]; checkErr != nil {
					fmt.Printf("   Reachable:    %s (%v)\n", errorColor.Sprint("no"), checkErr)
				} else {
					fmt.Printf("   Reachable:    %s\n", successColor.Sprint("yes"))
				}
			}
		}
	},
}

// promptForNewRemote handles the interactive prompts for adding a remote.
func promptForNewRemote(existing []config.Remote) (config.Remote, error) {
	var remote config.Remote
	var err error

	remote.Name, err = promptString("Unique name (e.g., 'staging', 'office-box'):", true)
	if err != nil {
		return remote, fmt.Errorf("error reading name: %w", err)
	}
	if remote.Name == project.LocalName {
		return remote, fmt.Errorf("'%s' is reserved for the local environment", project.LocalName)
	}
	for _, r := range existing {
		if r.Name == remote.Name {
			return remote, fmt.Errorf("remote with name '%s' already exists", remote.Name)
		}
	}

	remote.Hostname, err = promptString("Hostname or IP address:", true)
	if err != nil {
		return remote, fmt.Errorf("error reading hostname: %w", err)
	}

	remote.User, err = promptString("SSH username:", true)
	if err != nil {
		return remote, fmt.Errorf("error reading username: %w", err)
	}

	remote.Port, err = promptOptionalInt("SSH port", 22)
	if err != nil {
		return remote, fmt.Errorf("error reading port: %w", err)
	}
	if remote.Port == 22 {
		remote.Port = 0 // Store 0 for the default.
	}

	remote.Root, err = promptString("Project path on the remote (e.g., '~/crm-bot'):", true)
	if err != nil {
		return remote, fmt.Errorf("error reading project path: %w", err)
	}

	remote.KeyPath, err = promptString("SSH key path (optional, agent is tried otherwise):", false)
	if err != nil {
		return remote, fmt.Errorf("error reading key path: %w", err)
	}

	if remote.KeyPath == "" {
		usePassword, confirmErr := promptConfirm("Store a password instead? (stored insecurely in config)")
		if confirmErr != nil {
			return remote, fmt.Errorf("error reading password choice: %w", confirmErr)
		}
		if usePassword {
			remote.Password, err = promptString("SSH password:", true)
			if err != nil {
				return remote, fmt.Errorf("error reading password: %w", err)
			}
		}
	}

	remote.Disabled = false
	return remote, nil
}

var remoteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new remote host interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		fmt.Println("Adding a new remote host...")

		remote, err := promptForNewRemote(cfg.Remotes)
		if err != nil {
			logger.Errorf("Failed to get remote details: %v", err)
			os.Exit(1)
		}

		cfg.Remotes = append(cfg.Remotes, remote)
		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		successColor.Printf("Successfully added remote '%s'.\n", remote.Name)
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:               "remove <name>",
	Short:             "Remove a remote host configuration",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: remoteNameCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		index := -1
		for i, r := range cfg.Remotes {
			if r.Name == name {
				index = i
				break
			}
		}
		if index == -1 {
			errorColor.Fprintf(os.Stderr, "Error: remote '%s' not found.\n", name)
			os.Exit(1)
		}

		confirmed, err := promptConfirm(fmt.Sprintf("Remove remote '%s'?", name))
		if err != nil {
			logger.Errorf("Error reading confirmation: %v", err)
			os.Exit(1)
		}
		if !confirmed {
			fmt.Println("Removal cancelled.")
			return
		}

		cfg.Remotes = append(cfg.Remotes[:index], cfg.Remotes[index+1:]...)

		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}

		successColor.Printf("Successfully removed remote '%s'.\n", name)
	},
}

var remoteImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import remote hosts from ~/.ssh/config interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		potential, err := config.ParseSSHConfig()
		if err != nil {
			logger.Errorf("Error parsing ~/.ssh/config: %v", err)
			os.Exit(1)
		}
		if len(potential) == 0 {
			fmt.Println("No importable hosts found in ~/.ssh/config.")
			return
		}

		existingNames := make(map[string]bool)
		for _, r := range cfg.Remotes {
			existingNames[r.Name] = true
		}

		fmt.Println("Found potential hosts in ~/.ssh/config:")
		var importable []config.PotentialRemote
		for i, p := range potential {
			if existingNames[p.Alias] {
				fmt.Printf("  %d: %s (%s) - %s\n", i+1, identifierColor.Sprint(p.Alias), p.Hostname,
					errorColor.Sprint("[Skipped: name already configured]"))
				continue
			}
			fmt.Printf("  %d: %s (Hostname: %s, User: %s, Port: %d)\n", i+1,
				identifierColor.Sprint(p.Alias), p.Hostname, p.User, p.Port)
			if p.KeyPath != "" {
				fmt.Printf("     Key: %s\n", p.KeyPath)
			}
			importable = append(importable, p)
		}

		if len(importable) == 0 {
			fmt.Println("\nNo new hosts available to import.")
			return
		}

		fmt.Println("\nEnter the numbers of the hosts to import (comma-separated), or 'all':")
		choiceStr, err := promptString("Import selection:", true)
		if err != nil {
			logger.Errorf("Error reading selection: %v", err)
			os.Exit(1)
		}

		var selected []config.PotentialRemote
		if strings.ToLower(choiceStr) == "all" {
			selected = importable
		} else {
			seen := make(map[string]bool)
			for _, indexStr := range strings.Split(choiceStr, ",") {
				index, convErr := strconv.Atoi(strings.TrimSpace(indexStr))
				if convErr != nil || index < 1 || index > len(potential) {
					errorColor.Fprintf(os.Stderr, "Invalid selection '%s'.\n", indexStr)
					os.Exit(1)
				}
				p := potential[index-1]
				if existingNames[p.Alias] || seen[p.Alias] {
					continue
				}
				seen[p.Alias] = true
				selected = append(selected, p)
			}
		}

		var imported int
		for _, p := range selected {
			root, promptErr := promptString(
				fmt.Sprintf("Project path on '%s' (e.g., '~/crm-bot'):", p.Alias), true)
			if promptErr != nil {
				logger.Errorf("Error reading project path: %v", promptErr)
				os.Exit(1)
			}

			remote, convErr := config.ConvertToRemote(p, p.Alias, root)
			if convErr != nil {
				errorColor.Fprintf(os.Stderr, "Skipping '%s': %v\n", p.Alias, convErr)
				continue
			}
			cfg.Remotes = append(cfg.Remotes, remote)
			imported++
		}

		if imported == 0 {
			fmt.Println("Nothing imported.")
			return
		}

		if err := config.SaveConfig(cfg); err != nil {
			logger.Errorf("Error saving configuration: %v", err)
			os.Exit(1)
		}
		successColor.Printf("Imported %d remote host(s).\n", imported)
	},
}

var remoteCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check SSH connectivity to all configured remotes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Errorf("Error loading configuration: %v", err)
			os.Exit(1)
		}

		if len(cfg.Remotes) == 0 {
			fmt.Println("No remote hosts configured.")
			return
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")
		s.Suffix = " Checking remote connectivity..."
		s.Start()
		results := project.CheckRemotes(cfg)
		s.Stop()

		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)

		var failed bool
		for _, name := range names {
			if checkErr := results[name]; checkErr != nil {
				failed = true
				fmt.Printf("%s: %s (%v)\n", identifierColor.Sprint(name), errorColor.Sprint("unreachable"), checkErr)
			} else {
				fmt.Printf("%s: %s\n", identifierColor.Sprint(name), successColor.Sprint("ok"))
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

func promptString(prompt string, required bool) (string, error) {
	fmt.Print(prompt + " ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if required && input == "" {
		return "", fmt.Errorf("input is required")
	}
	return input, nil
}

func promptOptionalInt(prompt string, defaultValue int) (int, error) {
	fmt.Printf("%s (default: %d): ", prompt, defaultValue)
	input, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue, err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer input: %w", err)
	}
	return val, nil
}

func promptConfirm(prompt string) (bool, error) {
	fmt.Print(prompt + " (y/N): ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes", nil
}

func init() {
	remoteListCmd.Flags().BoolVar(&flagCheck, "check", false, "also check SSH connectivity")

	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)
	remoteCmd.AddCommand(remoteImportCmd)
	remoteCmd.AddCommand(remoteCheckCmd)

	rootCmd.AddCommand(remoteCmd)
}
