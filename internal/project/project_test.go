// SPDX-License-Identifier: Apache-2.0

package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCompose = `services:
  app:
    build: .
  db:
    image: postgres:16
`

// writeCompose creates a project directory with a compose file.
func writeCompose(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sampleCompose), 0644))
	return dir
}

func TestFindComposeFile(t *testing.T) {
	t.Run("DetectsComposeYaml", func(t *testing.T) {
		dir := writeCompose(t, "compose.yaml")
		name, ok := findComposeFile(dir)
		require.True(t, ok)
		assert.Equal(t, "compose.yaml", name)
	})

	t.Run("DetectsDockerComposeYml", func(t *testing.T) {
		dir := writeCompose(t, "docker-compose.yml")
		name, ok := findComposeFile(dir)
		require.True(t, ok)
		assert.Equal(t, "docker-compose.yml", name)
	})

	t.Run("PrefersComposeYaml", func(t *testing.T) {
		dir := writeCompose(t, "compose.yaml")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(sampleCompose), 0644))

		name, ok := findComposeFile(dir)
		require.True(t, ok)
		assert.Equal(t, "compose.yaml", name)
	})

	t.Run("NoComposeFile", func(t *testing.T) {
		_, ok := findComposeFile(t.TempDir())
		assert.False(t, ok)
	})
}

func TestLocateLocalRoot(t *testing.T) {
	// Keep the config out of the way so project_root can't interfere.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("OverrideWithCompose", func(t *testing.T) {
		dir := writeCompose(t, "compose.yaml")
		root, err := LocateLocalRoot(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})

	t.Run("OverrideWithoutCompose", func(t *testing.T) {
		_, err := LocateLocalRoot(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("OverrideMissingDir", func(t *testing.T) {
		_, err := LocateLocalRoot(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("WalksUpFromSubdirectory", func(t *testing.T) {
		dir := writeCompose(t, "compose.yaml")
		sub := filepath.Join(dir, "crm_bot", "scripts")
		require.NoError(t, os.MkdirAll(sub, 0755))
		t.Chdir(sub)

		root, err := LocateLocalRoot("")
		require.NoError(t, err)

		// TempDir may be behind a symlink (macOS); compare resolved paths.
		wantRoot, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		gotRoot, err := filepath.EvalSymlinks(root)
		require.NoError(t, err)
		assert.Equal(t, wantRoot, gotRoot)
	})
}

func TestLocalEnvironment(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := writeCompose(t, "docker-compose.yml")
	env, err := LocalEnvironment(dir)
	require.NoError(t, err)

	assert.Equal(t, LocalName, env.Name)
	assert.False(t, env.IsRemote)
	assert.Equal(t, dir, env.Root)
	assert.Equal(t, "docker-compose.yml", env.ComposeFile)
	assert.Equal(t, LocalName, env.Identifier())
}

func TestServices(t *testing.T) {
	t.Run("SortedNames", func(t *testing.T) {
		dir := writeCompose(t, "compose.yaml")
		services, err := Services(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"app", "db"}, services)
	})

	t.Run("NoComposeFile", func(t *testing.T) {
		_, err := Services(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte("services: ["), 0644))
		_, err := Services(dir)
		assert.Error(t, err)
	})
}

func TestHasService(t *testing.T) {
	dir := writeCompose(t, "compose.yaml")

	assert.True(t, HasService(dir, "app"))
	assert.True(t, HasService(dir, "db"))
	assert.False(t, HasService(dir, "redis"))

	// Unreadable compose files defer to the engine.
	assert.True(t, HasService(t.TempDir(), "anything"))
}

func TestValidateService(t *testing.T) {
	dir := writeCompose(t, "compose.yaml")
	local := Environment{Name: LocalName, Root: dir}

	t.Run("KnownService", func(t *testing.T) {
		assert.NoError(t, ValidateService(local, "app"))
	})

	t.Run("UnknownService", func(t *testing.T) {
		err := ValidateService(local, "redis")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis")
	})

	t.Run("EmptyNameMeansAllServices", func(t *testing.T) {
		assert.NoError(t, ValidateService(local, ""))
	})

	t.Run("RemoteSkipsValidation", func(t *testing.T) {
		remote := Environment{Name: "staging", IsRemote: true, Root: "/srv/crm-bot"}
		assert.NoError(t, ValidateService(remote, "redis"))
	})
}
