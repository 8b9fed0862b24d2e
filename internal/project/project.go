// SPDX-License-Identifier: Apache-2.0

// Package project locates the CRM bot compose project in local and remote
// environments. It finds the project root, detects the compose file, reads
// service names for validation and completion, and resolves environment
// identifiers into concrete execution targets.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"crmstack/internal/config"
	"crmstack/internal/logger"
	"crmstack/internal/ssh"
	"crmstack/internal/util"

	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"
)

// maxConcurrentChecks bounds parallel remote reachability checks to avoid
// overwhelming the local machine or the remote sshd.
const maxConcurrentChecks = 8

// LocalName is the identifier of the implicit local environment.
const LocalName = "local"

// sshManager provides access to SSH connections for remote operations.
var sshManager *ssh.Manager

// InitSSHManager sets the package-level SSH manager instance.
// This must be called before resolving any remote environment.
func InitSSHManager(manager *ssh.Manager) {
	if sshManager != nil {
		return
	}
	sshManager = manager
}

// composeFileNames lists the compose file names recognized during discovery,
// in preference order.
var composeFileNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Environment is a resolved execution target for the project: the local
// checkout or a configured remote host.
type Environment struct {
	Name        string         // "local" or the Name field from a Remote config
	IsRemote    bool           // True when the project lives on a remote host
	Remote      *config.Remote // Remote configuration (nil if local)
	Root        string         // Local absolute path OR resolved absolute path on the remote
	ComposeFile string         // Base name of the detected compose file (empty when unknown)
}

// Identifier returns the unique string representation of the environment.
func (e Environment) Identifier() string {
	if !e.IsRemote {
		return LocalName
	}
	return e.Name
}

// findComposeFile returns the first recognized compose file in dir.
func findComposeFile(dir string) (string, bool) {
	for _, name := range composeFileNames {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && !info.IsDir() {
			return name, true
		}
		if err != nil && !os.IsNotExist(err) {
			logger.Warn("Could not stat candidate compose file", "dir", dir, "file", name, "error", err)
		}
	}
	return "", false
}

// LocateLocalRoot finds the local project root. Resolution order:
// an explicit override (--project-dir), the project_root config key, then
// the working directory and its parents, looking for a compose file.
func LocateLocalRoot(override string) (string, error) {
	logger.Debug("Determining project root", "override", override)

	candidates := []string{}
	if override != "" {
		candidates = append(candidates, override)
	} else {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Warn("Could not load config to check project_root", "error", err)
		} else if cfg.ProjectRoot != "" {
			candidates = append(candidates, cfg.ProjectRoot)
		}
	}

	for _, candidate := range candidates {
		resolved, resolveErr := config.ResolvePath(candidate)
		if resolveErr != nil {
			logger.Warn("Could not resolve configured project root", "path", candidate, "error", resolveErr)
			resolved = candidate
		}

		info, statErr := os.Stat(resolved)
		if statErr != nil {
			return "", fmt.Errorf("configured project root '%s' is invalid: %w", candidate, statErr)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("configured project root '%s' is not a directory", candidate)
		}
		if _, ok := findComposeFile(resolved); !ok {
			return "", fmt.Errorf("no compose file found in configured project root '%s'", candidate)
		}

		abs, err := filepath.Abs(resolved)
		if err != nil {
			return "", fmt.Errorf("could not resolve absolute path for '%s': %w", resolved, err)
		}
		logger.Info("Using configured project root", "path", abs)
		return abs, nil
	}

	// Walk up from the working directory.
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not get working directory: %w", err)
	}

	for {
		if _, ok := findComposeFile(dir); ok {
			logger.Info("Using discovered project root", "path", dir)
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find a compose file in the current directory or any parent (set project_root or pass --project-dir)")
}

// LocalEnvironment resolves the local environment, locating the project
// root and detecting its compose file.
func LocalEnvironment(override string) (Environment, error) {
	root, err := LocateLocalRoot(override)
	if err != nil {
		return Environment{}, err
	}
	composeFile, _ := findComposeFile(root)
	return Environment{
		Name:        LocalName,
		IsRemote:    false,
		Root:        root,
		ComposeFile: composeFile,
	}, nil
}

// RemoteEnvironment resolves a configured remote into an environment with
// an absolute project root on the remote host.
func RemoteEnvironment(remote *config.Remote) (Environment, error) {
	if sshManager == nil {
		return Environment{}, fmt.Errorf("ssh manager not initialized for remote environment %s", remote.Name)
	}
	if remote.Root == "" {
		return Environment{}, fmt.Errorf("remote environment %s has no project root configured", remote.Name)
	}

	client, err := sshManager.GetClient(*remote)
	if err != nil {
		return Environment{}, err // GetClient already provides context
	}

	session, err := client.NewSession()
	if err != nil {
		return Environment{}, fmt.Errorf("failed to create ssh session for %s: %w", remote.Name, err)
	}
	resolveCmd := fmt.Sprintf("cd %s && pwd", util.QuoteArgForShell(remote.Root))
	output, err := session.CombinedOutput(resolveCmd)
	if closeErr := session.Close(); closeErr != nil && closeErr.Error() != "EOF" {
		logger.Errorf("Error closing SSH session for %s (resolve root): %v", remote.Name, closeErr)
	}
	if err != nil {
		return Environment{}, fmt.Errorf("failed to resolve project root '%s' on %s: %w\nOutput: %s", remote.Root, remote.Name, err, string(output))
	}

	absoluteRoot := strings.TrimSpace(string(output))
	if absoluteRoot == "" {
		return Environment{}, fmt.Errorf("resolved project root is empty for '%s' on %s", remote.Root, remote.Name)
	}

	return Environment{
		Name:     remote.Name,
		IsRemote: true,
		Remote:   remote,
		Root:     absoluteRoot,
	}, nil
}

// Resolve turns an environment name into a concrete Environment.
// An empty name or "local" selects the local checkout; anything else must
// match a configured remote.
func Resolve(cfg config.Config, name, projectDirOverride string) (Environment, error) {
	if name == "" || name == LocalName {
		return LocalEnvironment(projectDirOverride)
	}

	remote, err := cfg.FindRemote(name)
	if err != nil {
		return Environment{}, err
	}
	return RemoteEnvironment(remote)
}

// Services reads the compose file at root and returns the sorted service
// names. Only the top-level services mapping is inspected.
func Services(root string) ([]string, error) {
	composeFile, ok := findComposeFile(root)
	if !ok {
		return nil, fmt.Errorf("no compose file found in %s", root)
	}

	data, err := os.ReadFile(filepath.Join(root, composeFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file %s: %w", composeFile, err)
	}

	var doc struct {
		Services map[string]yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse compose file %s: %w", composeFile, err)
	}

	names := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasService reports whether the compose file at root defines service name.
// Errors reading the compose file are treated as "unknown" and return true
// so that the engine gives the authoritative answer.
func HasService(root, name string) bool {
	services, err := Services(root)
	if err != nil {
		return true
	}
	for _, s := range services {
		if s == name {
			return true
		}
	}
	return false
}

// ValidateService rejects service names the local compose file does not
// define. Remote environments are skipped: their compose file is not
// readable from here, so the engine gives the authoritative answer.
func ValidateService(env Environment, name string) error {
	if name == "" || env.IsRemote {
		return nil
	}
	if !HasService(env.Root, name) {
		return fmt.Errorf("service '%s' is not defined in the compose file at %s", name, env.Root)
	}
	return nil
}

// CheckRemotes probes every configured remote environment concurrently and
// returns a map of environment name to resolution error (nil when the
// project root resolved cleanly).
func CheckRemotes(cfg config.Config) map[string]error {
	results := make(map[string]error, len(cfg.Remotes))
	if len(cfg.Remotes) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(maxConcurrentChecks)
	ctx := context.Background()

	for i := range cfg.Remotes {
		remote := cfg.Remotes[i]
		wg.Add(1)
		go func(r config.Remote) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				results[r.Name] = fmt.Errorf("failed to acquire semaphore for %s: %w", r.Name, err)
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			_, err := RemoteEnvironment(&r)
			mu.Lock()
			results[r.Name] = err
			mu.Unlock()
		}(remote)
	}

	wg.Wait()
	return results
}
