// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// PotentialRemote is a host entry parsed from ~/.ssh/config that can be
// promoted to a Remote once a name and project root are chosen.
type PotentialRemote struct {
	Alias    string
	Hostname string
	User     string
	Port     int
	KeyPath  string
}

func DefaultSSHConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "config"), nil
}

// ParseSSHConfig reads the user's ssh config and returns concrete host
// entries (wildcard patterns are skipped).
func ParseSSHConfig() ([]PotentialRemote, error) {
	sshConfigPath, err := DefaultSSHConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(sshConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []PotentialRemote{}, nil
		}
		return nil, fmt.Errorf("failed to open ssh config file %s: %w", sshConfigPath, err)
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh config file %s: %w", sshConfigPath, err)
	}

	var hosts []PotentialRemote

	for _, host := range cfg.Hosts {
		if len(host.Patterns) == 0 || host.Patterns[0].String() == "*" {
			continue
		}

		alias := host.Patterns[0].String()

		hostname, _ := cfg.Get(alias, "HostName")
		user, _ := cfg.Get(alias, "User")
		portStr, _ := cfg.Get(alias, "Port")
		keyPath, _ := cfg.Get(alias, "IdentityFile")

		if hostname == "" {
			hostname = alias
		}

		port := 22
		if portStr != "" {
			p, err := strconv.Atoi(portStr)
			if err == nil {
				port = p
			}
		}

		if strings.HasPrefix(keyPath, "~/") {
			homeDir, homeErr := os.UserHomeDir()
			if homeErr == nil {
				keyPath = filepath.Join(homeDir, keyPath[2:])
			}
		}

		if hostname != "" && user != "" {
			hosts = append(hosts, PotentialRemote{
				Alias:    alias,
				Hostname: hostname,
				User:     user,
				Port:     port,
				KeyPath:  keyPath,
			})
		}
	}

	return hosts, nil
}

// ConvertToRemote promotes a parsed ssh config entry into a Remote
// environment with the given unique name and remote project root.
func ConvertToRemote(p PotentialRemote, uniqueName, root string) (Remote, error) {
	if p.Hostname == "" || p.User == "" {
		return Remote{}, fmt.Errorf("cannot convert potential remote '%s' with missing hostname or user", p.Alias)
	}
	if uniqueName == "" {
		return Remote{}, fmt.Errorf("a unique name is required for the remote environment")
	}

	return Remote{
		Name:     uniqueName,
		Hostname: p.Hostname,
		User:     p.User,
		Port:     p.Port,
		KeyPath:  p.KeyPath,
		Root:     root,
	}, nil
}
