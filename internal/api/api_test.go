// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crmstack/internal/config"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCompose = `services:
  app:
    build: .
  db:
    image: postgres:16
`

// newTestServer builds a Server over a throwaway project directory.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "compose.yaml"), []byte(sampleCompose), 0644))

	cfg := config.Config{
		Engine:      config.DefaultEngine,
		AppService:  config.DefaultAppService,
		DBService:   config.DefaultDBService,
		DatabaseURL: config.DefaultDatabaseURL,
		LogTail:     config.DefaultLogTail,
		Remotes: []config.Remote{
			{Name: "staging", Hostname: "staging.example.com", User: "deploy", Root: "~/crm-bot"},
		},
	}

	router := mux.NewRouter()
	NewServer(cfg, projectDir).RegisterRoutes(router)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, projectDir
}

func TestProjectHandler(t *testing.T) {
	ts, projectDir := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/project")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var info ProjectInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))

	assert.Equal(t, projectDir, info.Root)
	assert.Equal(t, "compose.yaml", info.ComposeFile)
	assert.Equal(t, "docker", info.Engine)
	assert.Equal(t, "app", info.AppService)
	assert.Equal(t, "db", info.DBService)
	assert.Equal(t, []string{"app", "db"}, info.Services)
	assert.Equal(t, []string{"local", "staging"}, info.Environments)
}

func TestStatusHandlerUnknownEnv(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/status?env=nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActionHandlerUnknownAction(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/actions/explode", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActionHandlerRefusesDownV(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/actions/down-v", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestActionHandlerRejectsUnknownService(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/actions/build", "application/json",
		strings.NewReader(`{"service":"redis"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActionHandlerRejectsBadBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/actions/migrate", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActionHandlerRequiresPost(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/actions/up")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
