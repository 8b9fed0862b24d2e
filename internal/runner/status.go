// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"crmstack/internal/config"
	"crmstack/internal/logger"
	"crmstack/internal/project"
	"crmstack/internal/util"
)

type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusPartial Status = "PARTIAL"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

// ContainerState mirrors one line of `compose ps --format json` output.
type ContainerState struct {
	Name    string `json:"Name"`
	Command string `json:"Command"`
	Service string `json:"Service"`
	Status  string `json:"Status"` // e.g., "running", "exited(0)", "Up 3 minutes"
	Ports   string `json:"Ports"`
}

// RuntimeInfo holds the status information for an environment's stack.
type RuntimeInfo struct {
	Env           project.Environment
	OverallStatus Status
	Containers    []ContainerState
	Error         error
}

// containerIsUp classifies a single container status string.
func containerIsUp(status string) bool {
	lower := strings.ToLower(status)
	return strings.Contains(lower, "running") ||
		strings.Contains(lower, "healthy") ||
		strings.HasPrefix(status, "Up")
}

// GetStatus runs `compose ps --format json -a` in the environment and
// folds the per-container states into an overall verdict.
func GetStatus(env project.Environment, cfg config.Config) RuntimeInfo {
	info := RuntimeInfo{Env: env, OverallStatus: StatusUnknown}
	cmdDesc := fmt.Sprintf("status check for %s", env.Identifier())
	psArgs := []string{"compose", "ps", "--format", "json", "-a"}

	var output []byte
	var err error
	var stderrStr string

	if env.IsRemote {
		if sshManager == nil {
			info.OverallStatus = StatusError
			info.Error = fmt.Errorf("ssh manager not initialized for %s", cmdDesc)
			return info
		}
		if env.Remote == nil {
			info.OverallStatus = StatusError
			info.Error = fmt.Errorf("internal error: remote config is nil for %s", cmdDesc)
			return info
		}

		client, clientErr := sshManager.GetClient(*env.Remote)
		if clientErr != nil {
			info.OverallStatus = StatusError
			info.Error = fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, clientErr)
			return info
		}

		session, sessionErr := client.NewSession()
		if sessionErr != nil {
			info.OverallStatus = StatusError
			info.Error = fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, sessionErr)
			return info
		}

		remoteCmdParts := []string{"cd", util.QuoteArgForShell(env.Root), "&&", cfg.Engine}
		for _, arg := range psArgs {
			remoteCmdParts = append(remoteCmdParts, util.QuoteArgForShell(arg))
		}

		output, err = session.CombinedOutput(strings.Join(remoteCmdParts, " "))
		if closeErr := session.Close(); closeErr != nil && closeErr.Error() != "EOF" {
			logger.Errorf("Error closing SSH session for %s: %v", cmdDesc, closeErr)
		}
	} else {
		cmd := exec.Command(cfg.Engine, psArgs...)
		cmd.Dir = env.Root
		var stdoutBuf, stderrBuf bytes.Buffer
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf

		err = cmd.Run()
		output = stdoutBuf.Bytes()
		stderrStr = stderrBuf.String()
	}

	if err != nil {
		// Distinguish "stack simply down" from real failures.
		errMsgLower := strings.ToLower(err.Error())
		stderrLower := strings.ToLower(stderrStr)
		if env.IsRemote {
			// Remote stderr is folded into the combined output.
			stderrLower = strings.ToLower(string(output))
		}

		if strings.Contains(errMsgLower, "exit status") ||
			strings.Contains(stderrLower, "no containers found") ||
			strings.Contains(stderrLower, "no such file or directory") {
			info.OverallStatus = StatusDown
			return info // Not a failure, just down.
		}

		info.OverallStatus = StatusError
		errMsg := fmt.Sprintf("failed to run %s", cmdDesc)
		if !env.IsRemote && stderrStr != "" {
			errMsg = fmt.Sprintf("%s: %s", errMsg, strings.TrimSpace(stderrStr))
		}
		info.Error = fmt.Errorf("%s: %w", errMsg, err)
		return info
	}

	containers, parseErr := ParseComposePS(output)
	if parseErr != nil {
		if strings.Contains(strings.ToLower(string(output)), "no containers found") {
			info.OverallStatus = StatusDown
			return info
		}
		info.OverallStatus = StatusError
		info.Error = parseErr
		return info
	}

	info.Containers = containers
	info.OverallStatus = OverallStatus(containers)
	return info
}

// ParseComposePS decodes `compose ps --format json` output. Both docker and
// podman emit a stream of JSON objects, one per line.
func ParseComposePS(output []byte) ([]ContainerState, error) {
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, nil
	}

	var containers []ContainerState
	var firstUnmarshalError error

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(bytes.TrimSpace(lineBytes)) == 0 {
			continue
		}

		var container ContainerState
		if errUnmarshal := json.Unmarshal(lineBytes, &container); errUnmarshal != nil {
			// Keep the first error but try the remaining lines.
			if firstUnmarshalError == nil {
				firstUnmarshalError = fmt.Errorf("failed to decode container status JSON line: %w\nLine: %s", errUnmarshal, string(lineBytes))
			}
			continue
		}
		containers = append(containers, container)
	}

	if errScan := scanner.Err(); errScan != nil && firstUnmarshalError == nil {
		firstUnmarshalError = fmt.Errorf("error scanning command output: %w", errScan)
	}
	if firstUnmarshalError != nil {
		return nil, firstUnmarshalError
	}

	return containers, nil
}

// OverallStatus folds container states into a single verdict.
func OverallStatus(containers []ContainerState) Status {
	if len(containers) == 0 {
		return StatusDown
	}

	allRunning := true
	anyRunning := false
	for _, c := range containers {
		if containerIsUp(c.Status) {
			anyRunning = true
		} else {
			allRunning = false
		}
	}

	if allRunning {
		return StatusUp
	}
	if anyRunning {
		return StatusPartial
	}
	return StatusDown
}
