// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"crmstack/internal/config"
	"crmstack/internal/project"

	"github.com/spf13/cobra"
)

// serviceCompletionFunc suggests service names from the local compose file.
// Remote compose files are not fetched during completion.
func serviceCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	env, err := project.LocalEnvironment(flagProjectDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	services, err := project.Services(env.Root)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var suggestions []string
	for _, s := range services {
		if strings.HasPrefix(s, toComplete) {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// envCompletionFunc suggests "local" plus the configured remote names.
func envCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	suggestions := []string{project.LocalName}

	cfg, err := config.LoadConfig()
	// Ignore config load errors during completion.
	if err == nil {
		for _, r := range cfg.Remotes {
			suggestions = append(suggestions, r.Name)
		}
	}

	var filtered []string
	for _, s := range suggestions {
		if strings.HasPrefix(s, toComplete) {
			filtered = append(filtered, s)
		}
	}
	return filtered, cobra.ShellCompDirectiveNoFileComp
}

// remoteNameCompletionFunc suggests only the configured remote names.
func remoteNameCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var suggestions []string
	for _, r := range cfg.Remotes {
		if strings.HasPrefix(r.Name, toComplete) {
			suggestions = append(suggestions, r.Name)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}
