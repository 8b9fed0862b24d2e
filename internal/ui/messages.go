// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"crmstack/internal/config"
	"crmstack/internal/project"
	"crmstack/internal/runner"
)

// projectLoadedMsg carries the resolved config and local environment after
// startup initialization.
type projectLoadedMsg struct {
	cfg config.Config
	env project.Environment
}

// statusMsg carries a finished status check.
type statusMsg struct {
	info runner.RuntimeInfo
}

// envResolvedMsg carries the environment after a tab switch.
type envResolvedMsg struct {
	env project.Environment
}

// seqEventMsg is one event from a running action sequence: an output chunk,
// a step boundary, or completion.
type seqEventMsg struct {
	chunk string
	step  string // non-empty when a new step starts
	done  bool
	err   error
}

// errorMsg reports a failure outside of sequence execution.
type errorMsg struct {
	err error
}
