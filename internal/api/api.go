// SPDX-License-Identifier: Apache-2.0

// Package api implements the HTTP endpoints behind `crmstack serve`: project
// metadata, stack status, and non-interactive actions, consumed by the
// embedded dashboard page.
package api

import (
	"encoding/json"
	"net/http"

	"crmstack/internal/config"
	"crmstack/internal/project"
	"crmstack/internal/runner"

	"github.com/gorilla/mux"
)

// Server carries the resolved configuration shared by all handlers.
type Server struct {
	cfg        config.Config
	projectDir string // --project-dir override, may be empty
}

// NewServer builds a Server around the loaded configuration.
func NewServer(cfg config.Config, projectDir string) *Server {
	return &Server{cfg: cfg, projectDir: projectDir}
}

// RegisterRoutes attaches all API endpoints to the router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/project", s.projectHandler).Methods("GET")
	router.HandleFunc("/api/status", s.statusHandler).Methods("GET")
	router.HandleFunc("/api/actions/{action}", s.actionHandler).Methods("POST")
}

// writeJSONResponse writes a JSON response with CORS headers.
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(data)
}

// resolveEnv resolves the ?env= query parameter (default local).
func (s *Server) resolveEnv(r *http.Request) (project.Environment, error) {
	name := r.URL.Query().Get("env")
	return project.Resolve(s.cfg, name, s.projectDir)
}

// ProjectInfo is the response body of GET /api/project.
type ProjectInfo struct {
	Root         string   `json:"root"`
	ComposeFile  string   `json:"composeFile"`
	Engine       string   `json:"engine"`
	AppService   string   `json:"appService"`
	DBService    string   `json:"dbService"`
	Services     []string `json:"services,omitempty"`
	Environments []string `json:"environments"`
}

func (s *Server) projectHandler(w http.ResponseWriter, r *http.Request) {
	env, err := project.LocalEnvironment(s.projectDir)
	if err != nil {
		http.Error(w, "Error locating project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	services, err := project.Services(env.Root)
	if err != nil {
		// Service names are advisory; keep the rest of the payload useful.
		services = nil
	}

	environments := []string{project.LocalName}
	for _, remote := range s.cfg.Remotes {
		environments = append(environments, remote.Name)
	}

	writeJSONResponse(w, ProjectInfo{
		Root:         env.Root,
		ComposeFile:  env.ComposeFile,
		Engine:       s.cfg.Engine,
		AppService:   s.cfg.AppService,
		DBService:    s.cfg.DBService,
		Services:     services,
		Environments: environments,
	})
}

// StatusResponse is the response body of GET /api/status.
type StatusResponse struct {
	Env        string                  `json:"env"`
	Status     runner.Status           `json:"status"`
	Containers []runner.ContainerState `json:"containers,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	env, err := s.resolveEnv(r)
	if err != nil {
		http.Error(w, "Error resolving environment: "+err.Error(), http.StatusNotFound)
		return
	}

	info := runner.GetStatus(env, s.cfg)
	resp := StatusResponse{
		Env:        env.Identifier(),
		Status:     info.OverallStatus,
		Containers: info.Containers,
	}
	if info.Error != nil {
		resp.Error = info.Error.Error()
	}
	writeJSONResponse(w, resp)
}
