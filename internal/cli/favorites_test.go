package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/app"
	"github.com/artpar/liftoff/internal/config"
	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/relay"
)

func TestFavoritesCommand_AddListRemove(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No favorites")

	out, err = e.run(t, "favorites", "add", "1", "#9")
	require.NoError(t, err)
	assert.Contains(t, out, "Added #1 FalconSat")
	assert.Contains(t, out, "Added #9 CRS-1")

	out, err = e.run(t, "favorites", "add", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 FalconSat is already a favorite")

	out, err = e.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "FalconSat")
	assert.Contains(t, out, "CRS-1")

	out, err = e.run(t, "favorites", "list", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"mission_name": "CRS-1"`)

	out, err = e.run(t, "favorites", "remove", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 favorites")

	out, err = e.run(t, "favorites", "list", "--format", "yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, "FalconSat")
	assert.Contains(t, out, "CRS-1")
}

func TestFavoritesCommand_AddErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "favorites", "add", "abc")
	assert.Error(t, err)

	_, err = e.run(t, "favorites", "add", "0")
	assert.Error(t, err)

	_, err = e.run(t, "favorites", "add", "99")
	assert.Error(t, err)

	_, err = e.run(t, "favorites", "add")
	assert.Error(t, err)
}

func TestFavoritesCommand_Clear(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "favorites", "add", "3", "4")
	require.NoError(t, err)

	_, err = e.run(t, "favorites", "clear")
	assert.ErrorContains(t, err, "--yes")

	out, err := e.run(t, "favorites", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 favorites")

	out, err = e.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No favorites")

	// Nothing to confirm.
	_, err = e.run(t, "favorites", "clear")
	assert.NoError(t, err)
}

func TestFavoritesCommand_ExportImport(t *testing.T) {
	src := newEnv(t)
	_, err := src.run(t, "favorites", "add", "5", "12")
	require.NoError(t, err)

	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "favorites.json")
	_, err = src.run(t, "favorites", "export", "--output", jsonFile)
	require.NoError(t, err)

	content, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "RazakSAT")

	out, err := src.run(t, "favorites", "export", "--format", "curl")
	require.NoError(t, err)
	assert.Contains(t, out, "curl")
	assert.Contains(t, out, src.upstream+"/launches/12")

	dst := newEnv(t)
	_, err = dst.run(t, "favorites", "add", "5")
	require.NoError(t, err)

	out, err = dst.run(t, "favorites", "import", jsonFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 launches from json (1 new)")

	out, err = dst.run(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SES-8")

	yamlFile := filepath.Join(dir, "favorites.txt")
	_, err = src.run(t, "favorites", "export", "--format", "yaml", "-o", yamlFile)
	require.NoError(t, err)

	fresh := newEnv(t)
	out, err = fresh.run(t, "favorites", "import", yamlFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 launches from yaml (2 new)")
}

func TestFavoritesCommand_ImportErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "favorites", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"mission_name": "x"}]`), 0o644))
	_, err = e.run(t, "favorites", "import", bad)
	assert.Error(t, err)
}

func TestFavoritesCommand_ExportUnknownFormat(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "favorites", "export", "--format", "csv")
	assert.Error(t, err)
}

func TestFavoritesCommand_WatchNeedsRelay(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "favorites", "watch")
	assert.ErrorContains(t, err, "relay")
}

func TestFavoritesCommand_Watch(t *testing.T) {
	e := newEnv(t)

	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.BaseURL = e.upstream
	relayApp, err := app.New(cfg)
	require.NoError(t, err)
	defer relayApp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := relayApp.NewRelay(relay.WithListenAddr("127.0.0.1:0"))
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	_, err = relayApp.Favorites().Add(ctx, core.Launch{FlightNumber: 1, MissionName: "FalconSat"})
	require.NoError(t, err)
	_, err = relayApp.Favorites().Add(ctx, core.Launch{FlightNumber: 2, MissionName: "DemoSat"})
	require.NoError(t, err)

	watchCtx, watchCancel := context.WithTimeout(ctx, 10*time.Second)
	defer watchCancel()

	out, err := execute(watchCtx, e.args("--relay-url", "http://"+server.ListenAddr(),
		"favorites", "watch", "--events", "1")...)
	require.NoError(t, err)
	assert.Equal(t, "favorites: 2\n", out)
}

func TestParseFlights(t *testing.T) {
	flights, err := parseFlights([]string{"1", "#42"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 42}, flights)

	_, err = parseFlights([]string{"-3"})
	assert.Error(t, err)
}
