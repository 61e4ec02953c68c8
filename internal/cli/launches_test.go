package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/core"
)

func TestLaunchesCommand_Table(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "launches")
	require.NoError(t, err)
	assert.Contains(t, out, "MISSION")
	assert.Contains(t, out, "FalconSat")
	assert.Contains(t, out, "Falcon 9")
	assert.Contains(t, out, "2010-01-01")
	assert.Contains(t, out, "Page 1, 12 launches, more with --page 2")

	out, err = e.run(t, "launches", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "OG-2 Mission 1")
	assert.NotContains(t, out, "FalconSat")
	assert.Contains(t, out, "Page 2, 3 launches")

	out, err = e.run(t, "launches", "--page", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "No launches found")
}

func TestLaunchesCommand_JSON(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "launches", "--limit", "5", "--json")
	require.NoError(t, err)

	var page core.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Launches, 5)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.True(t, page.HasMore)
}

func TestLaunchesCommand_YAML(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "launches", "--search", "crs", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "mission_name: CRS-1")
	assert.Contains(t, out, "mission_name: CRS-3")
	assert.NotContains(t, out, "FalconSat")
	assert.Contains(t, out, "hasMore: true")
}

func TestLaunchesCommand_InvalidArgs(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad sort", []string{"launches", "--sort", "rocket-up"}},
		{"page zero", []string{"launches", "--page", "0"}},
		{"json and yaml", []string{"launches", "--json", "--yaml"}},
		{"positional args", []string{"launches", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestLaunchTable(t *testing.T) {
	out := launchTable([]core.Launch{{
		FlightNumber:  7,
		MissionName:   "COTS 1",
		LaunchDateUTC: "not a date",
	}})
	assert.Contains(t, out, "FLIGHT")
	assert.Contains(t, out, "COTS 1")
	assert.Contains(t, out, "not a date")
}
