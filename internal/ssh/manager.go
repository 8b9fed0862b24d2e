// SPDX-License-Identifier: Apache-2.0

// Package ssh provides functionality for establishing and managing SSH
// connections to remote environments. It handles authentication, connection
// pooling, and provides clients used to execute commands on remote systems.
package ssh

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crmstack/internal/config"
	"crmstack/internal/logger"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Manager handles SSH connections to remote environments.
// It maintains a pool of connections to avoid repeatedly establishing new
// connections to the same hosts and provides thread-safe access to them.
type Manager struct {
	clients map[string]*ssh.Client // Map of remote names to active SSH clients
	mu      sync.Mutex
}

// NewManager creates and initializes a new SSH connection manager.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*ssh.Client),
	}
}

// GetClient returns an established SSH client for the specified remote.
// It reuses existing connections when possible, and creates new ones when
// necessary. Cached connections are validated with a keepalive probe before
// being handed out.
func (m *Manager) GetClient(remote config.Remote) (*ssh.Client, error) {
	m.mu.Lock()
	client, found := m.clients[remote.Name]
	if found {
		// Keepalive to check if cached client is still valid (not foolproof).
		_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
		if err == nil {
			m.mu.Unlock()
			return client, nil
		}
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing existing SSH client for %s during reconnect: %v", remote.Name, err)
		}
		delete(m.clients, remote.Name)
	}
	m.mu.Unlock() // Unlock before potentially long Dial operation

	authMethods, err := m.getAuthMethods(remote)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare auth methods for %s: %w", remote.Name, err)
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no suitable authentication method found for %s (key, agent, or password required)", remote.Name)
	}

	sshConfig := &ssh.ClientConfig{
		User:    remote.User,
		Auth:    authMethods,
		Timeout: 10 * time.Second,
	}
	hostKeyCallback, khErr := createHostKeyCallback()
	if khErr != nil {
		// Proceed without strict verification only when known_hosts is unusable.
		logger.Warnf("Could not create known_hosts callback for %s: %v. Host key will not be verified.", remote.Name, khErr)
		sshConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		sshConfig.HostKeyCallback = hostKeyCallback
	}

	port := remote.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", remote.Hostname, port)

	newClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh host %s (%s): %w", remote.Name, addr, err)
	}

	m.mu.Lock()
	// Double-check if another goroutine created a client while we were dialing
	existingClient, found := m.clients[remote.Name]
	if found {
		m.mu.Unlock()
		if err := newClient.Close(); err != nil {
			logger.Errorf("Error closing redundant SSH client for %s: %v", remote.Name, err)
		}
		return existingClient, nil
	}
	m.clients[remote.Name] = newClient
	m.mu.Unlock()

	return newClient, nil
}

// getAuthMethods prepares authentication methods for the SSH connection.
// It tries multiple authentication methods in this order:
// 1. SSH key authentication if KeyPath is provided
// 2. SSH agent authentication if SSH_AUTH_SOCK is available
// 3. Password authentication if Password is provided
func (m *Manager) getAuthMethods(remote config.Remote) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if remote.KeyPath != "" {
		keyPath, resolveErr := config.ResolvePath(remote.KeyPath)
		if resolveErr != nil {
			logger.Errorf("Warning: could not resolve key path '%s': %v", remote.KeyPath, resolveErr)
			keyPath = remote.KeyPath
		}

		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file %s: %w", keyPath, err)
		}

		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			if _, ok := err.(*ssh.PassphraseMissingError); ok {
				// Encrypted keys are skipped; agent or password may still work.
				logger.Warnf("Private key file %s is encrypted and passphrase prompting is not yet supported here. Skipping key.", keyPath)
			} else {
				return nil, fmt.Errorf("failed to parse private key file %s: %w", keyPath, err)
			}
		} else {
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		conn, err := net.Dial("unix", socket)
		if err == nil { // Silently ignore agent errors if key/password might work
			agentClient := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(agentClient.Signers))
		}
	}

	if remote.Password != "" {
		methods = append(methods, ssh.Password(remote.Password))
	}

	return methods, nil
}

// CloseAll closes all active SSH connections managed by this Manager.
// This should be called when the application is shutting down.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing SSH client for %s: %v", name, err)
		}
		delete(m.clients, name)
	}
}

// Close closes a specific SSH connection by remote name.
func (m *Manager) Close(remoteName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, found := m.clients[remoteName]; found {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing SSH client for %s: %v", remoteName, err)
		}
		delete(m.clients, remoteName)
	}
}

// createHostKeyCallback attempts to load the user's known_hosts file.
// If the known_hosts file doesn't exist, a warning is logged and an insecure
// callback is returned as a fallback (accepting any host key).
func createHostKeyCallback() (ssh.HostKeyCallback, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory for known_hosts: %w", err)
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("known_hosts file (%s) not found. Will attempt connection without verification.", knownHostsPath)
			return ssh.InsecureIgnoreHostKey(), nil
		}
		return nil, fmt.Errorf("failed to load or parse known_hosts file %s: %w", knownHostsPath, err)
	}
	return callback, nil
}
