// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"testing"

	"crmstack/internal/config"
	"crmstack/internal/project"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// menuModel returns a model sitting on the menu with the cursor on the
// named action.
func menuModel(t *testing.T, actionName string) Model {
	t.Helper()

	m := NewModel("")
	m.state = stateMenu
	m.cfg = config.Config{Engine: config.DefaultEngine}
	m.env = project.Environment{Name: project.LocalName, Root: t.TempDir()}

	for i, act := range menuActions {
		if act.name == actionName {
			m.cursor = i
			return m
		}
	}
	t.Fatalf("action %q not in menu", actionName)
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDownVAsksForConfirmation(t *testing.T) {
	m := menuModel(t, "down-v")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	require.Equal(t, stateConfirm, got.state, "volume removal must not start without confirmation")
	assert.Nil(t, cmd)
	assert.Equal(t, "down-v", got.pendingAction.name)
}

func TestDownVConfirmationCancelled(t *testing.T) {
	m := menuModel(t, "down-v")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	confirm := updated.(Model)
	require.Equal(t, stateConfirm, confirm.state)

	t.Run("Escape", func(t *testing.T) {
		updated, cmd := confirm.Update(tea.KeyMsg{Type: tea.KeyEsc})
		got := updated.(Model)
		assert.Equal(t, stateMenu, got.state)
		assert.Empty(t, got.pendingAction.name)
		assert.Nil(t, cmd)
	})

	t.Run("NKey", func(t *testing.T) {
		updated, cmd := confirm.Update(keyRune('n'))
		got := updated.(Model)
		assert.Equal(t, stateMenu, got.state)
		assert.Empty(t, got.pendingAction.name)
		assert.Nil(t, cmd)
	})
}

func TestOtherActionsSkipConfirmation(t *testing.T) {
	// "down" keeps the data volume, so it runs straight away.
	m := menuModel(t, "down")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	assert.NotEqual(t, stateConfirm, got.state)
}

func TestConfirmViewNamesTheAction(t *testing.T) {
	m := menuModel(t, "down-v")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	view := got.View()
	assert.Contains(t, view, "volumes")
	assert.Contains(t, view, "confirm")
}
