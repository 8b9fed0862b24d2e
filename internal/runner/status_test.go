// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComposePS(t *testing.T) {
	t.Run("LineDelimitedObjects", func(t *testing.T) {
		output := []byte(`{"Name":"crm-bot-app-1","Service":"app","Status":"running","Ports":""}
{"Name":"crm-bot-db-1","Service":"db","Status":"running","Ports":"0.0.0.0:5432->5432/tcp"}
`)
		containers, err := ParseComposePS(output)
		require.NoError(t, err)
		require.Len(t, containers, 2)
		assert.Equal(t, "app", containers[0].Service)
		assert.Equal(t, "db", containers[1].Service)
		assert.Equal(t, "0.0.0.0:5432->5432/tcp", containers[1].Ports)
	})

	t.Run("BlankLinesSkipped", func(t *testing.T) {
		output := []byte("\n{\"Name\":\"crm-bot-app-1\",\"Service\":\"app\",\"Status\":\"running\"}\n\n")
		containers, err := ParseComposePS(output)
		require.NoError(t, err)
		assert.Len(t, containers, 1)
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		containers, err := ParseComposePS([]byte("   \n"))
		require.NoError(t, err)
		assert.Nil(t, containers)
	})

	t.Run("GarbageLine", func(t *testing.T) {
		output := []byte("not json at all\n")
		_, err := ParseComposePS(output)
		assert.Error(t, err)
	})
}

func TestOverallStatus(t *testing.T) {
	t.Run("NoContainersIsDown", func(t *testing.T) {
		assert.Equal(t, StatusDown, OverallStatus(nil))
	})

	t.Run("AllRunningIsUp", func(t *testing.T) {
		containers := []ContainerState{
			{Service: "app", Status: "running"},
			{Service: "db", Status: "Up 3 minutes (healthy)"},
		}
		assert.Equal(t, StatusUp, OverallStatus(containers))
	})

	t.Run("MixedIsPartial", func(t *testing.T) {
		containers := []ContainerState{
			{Service: "app", Status: "exited(1)"},
			{Service: "db", Status: "running"},
		}
		assert.Equal(t, StatusPartial, OverallStatus(containers))
	})

	t.Run("AllStoppedIsDown", func(t *testing.T) {
		containers := []ContainerState{
			{Service: "app", Status: "exited(0)"},
			{Service: "db", Status: "exited(0)"},
		}
		assert.Equal(t, StatusDown, OverallStatus(containers))
	})
}

func TestContainerIsUp(t *testing.T) {
	assert.True(t, containerIsUp("running"))
	assert.True(t, containerIsUp("Up 10 seconds"))
	assert.True(t, containerIsUp("Up 2 hours (healthy)"))
	assert.False(t, containerIsUp("exited(0)"))
	assert.False(t, containerIsUp("created"))
}
