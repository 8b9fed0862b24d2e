// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfigDir points the config package at a throwaway directory.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultAppService, cfg.AppService)
	assert.Equal(t, DefaultDBService, cfg.DBService)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, DefaultLogTail, cfg.LogTail)
	assert.Empty(t, cfg.Remotes)
}

func TestLoadConfigDatabaseURLFromEnv(t *testing.T) {
	t.Run("FillsEmptyConfig", func(t *testing.T) {
		useTempConfigDir(t)
		t.Setenv("DATABASE_URL", "postgresql://override@elsewhere/db")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgresql://override@elsewhere/db", cfg.DatabaseURL)
	})

	t.Run("OverridesConfiguredValue", func(t *testing.T) {
		useTempConfigDir(t)
		require.NoError(t, SaveConfig(Config{
			DatabaseURL: "postgresql+psycopg://configured@db/crm_bot",
		}))
		t.Setenv("DATABASE_URL", "postgresql://env-override@elsewhere/db")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgresql://env-override@elsewhere/db", cfg.DatabaseURL)
	})

	t.Run("ConfiguredValueWinsWithoutEnv", func(t *testing.T) {
		useTempConfigDir(t)
		t.Setenv("DATABASE_URL", "")
		os.Unsetenv("DATABASE_URL")
		require.NoError(t, SaveConfig(Config{
			DatabaseURL: "postgresql+psycopg://configured@db/crm_bot",
		}))

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgresql+psycopg://configured@db/crm_bot", cfg.DatabaseURL)
	})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	saved := Config{
		ProjectRoot: "/srv/crm-bot",
		Engine:      "podman",
		LogTail:     250,
		Remotes: []Remote{
			{Name: "staging", Hostname: "staging.example.com", User: "deploy", Root: "~/crm-bot"},
		},
	}
	require.NoError(t, SaveConfig(saved))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/crm-bot", cfg.ProjectRoot)
	assert.Equal(t, "podman", cfg.Engine)
	assert.Equal(t, 250, cfg.LogTail)
	require.Len(t, cfg.Remotes, 1)
	assert.Equal(t, "staging", cfg.Remotes[0].Name)
	assert.Equal(t, "~/crm-bot", cfg.Remotes[0].Root)

	// Defaults still fill the unset fields.
	assert.Equal(t, DefaultAppService, cfg.AppService)
}

func TestLoadConfigRejectsUnknownEngine(t *testing.T) {
	dir := useTempConfigDir(t)

	configDir := filepath.Join(dir, "crmstack")
	require.NoError(t, os.MkdirAll(configDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("engine: containerd\n"), 0640))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigDropsDisabledRemotes(t *testing.T) {
	useTempConfigDir(t)

	saved := Config{
		Remotes: []Remote{
			{Name: "active", Hostname: "a.example.com", User: "deploy", Root: "~/crm-bot"},
			{Name: "paused", Hostname: "b.example.com", User: "deploy", Root: "~/crm-bot", Disabled: true},
		},
	}
	require.NoError(t, SaveConfig(saved))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Remotes, 1)
	assert.Equal(t, "active", cfg.Remotes[0].Name)
}

func TestFindRemote(t *testing.T) {
	cfg := Config{Remotes: []Remote{{Name: "staging"}, {Name: "prod"}}}

	remote, err := cfg.FindRemote("prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", remote.Name)

	_, err = cfg.FindRemote("missing")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Run("AbsoluteUnchanged", func(t *testing.T) {
		p, err := ResolvePath("/srv/crm-bot")
		require.NoError(t, err)
		assert.Equal(t, "/srv/crm-bot", p)
	})

	t.Run("TildeExpanded", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		p, err := ResolvePath("~/crm-bot")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "crm-bot"), p)
	})
}
