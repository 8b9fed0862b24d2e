// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"crmstack/internal/database"
	"crmstack/internal/project"
	"crmstack/internal/runner"

	"github.com/gorilla/mux"
)

// dbReadyTimeout bounds the readiness wait after an up-db action.
const dbReadyTimeout = 60 * time.Second

// ActionRequest is the optional JSON body of POST /api/actions/{action}.
type ActionRequest struct {
	Revision string `json:"revision,omitempty"` // migrate target, default "head"
	Service  string `json:"service,omitempty"`  // build/restart target, default all
	Pull     bool   `json:"pull,omitempty"`     // pull before up
}

// ActionResponse reports the collected output of a finished action.
type ActionResponse struct {
	Action   string `json:"action"`
	Env      string `json:"env"`
	Output   string `json:"output"`
	ExitCode int    `json:"exitCode"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	action := vars["action"]

	// Volume destruction needs the CLI's confirmation prompt; the HTTP API
	// has none, so the action is not exposed here.
	if action == "down-v" {
		http.Error(w, "action 'down-v' is not available over the API; use the CLI", http.StatusForbidden)
		return
	}

	env, err := s.resolveEnv(r)
	if err != nil {
		http.Error(w, "Error resolving environment: "+err.Error(), http.StatusNotFound)
		return
	}

	var req ActionRequest
	if body, readErr := io.ReadAll(r.Body); readErr == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer r.Body.Close()

	if err := project.ValidateService(env, req.Service); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Interactive operations (shell, db-shell, logs -f, test) are
	// deliberately not exposed over HTTP.
	sequence, err := runner.SequenceFor(action, env, s.cfg, runner.SequenceOptions{
		Revision: req.Revision,
		Service:  req.Service,
		Pull:     req.Pull,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	output, runErr := collectSequence(sequence)

	if runErr == nil && action == "up-db" {
		runErr = s.waitForDatabase(env, &output)
	}

	resp := ActionResponse{
		Action:   action,
		Env:      env.Identifier(),
		Output:   output,
		ExitCode: runner.ExitCodeFromError(runErr),
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}
	writeJSONResponse(w, resp)
}

// collectSequence runs steps in channel mode and concatenates their output.
// The first failing step aborts the rest of the sequence.
func collectSequence(sequence []runner.Step) (string, error) {
	var output strings.Builder

	for _, step := range sequence {
		outChan, errChan := runner.StreamStep(step, false)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for line := range outChan {
				output.WriteString(line.Line)
			}
		}()

		stepErr := <-errChan
		<-done

		if stepErr != nil {
			return output.String(), stepErr
		}
	}
	return output.String(), nil
}

// waitForDatabase blocks until the db service accepts connections,
// appending a note to the collected output.
func (s *Server) waitForDatabase(env project.Environment, output *string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbReadyTimeout)
	defer cancel()

	var err error
	if env.IsRemote {
		err = runner.WaitForRemoteDatabase(ctx, env, s.cfg, time.Second)
	} else {
		err = database.WaitReady(ctx, s.cfg.DatabaseURL, time.Second)
	}
	if err == nil {
		*output += "\nDatabase is ready.\n"
	}
	return err
}
