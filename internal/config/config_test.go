package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/core"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", "", "")
	flags.String("data-dir", "", "")
	flags.String("log-level", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIFTOFF_DATA_DIR", dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "", cfg.RelayURL)
	assert.Equal(t, ":8088", cfg.ListenAddr)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.EmptyFirstPageHasMore)
	assert.Equal(t, core.PolicyEmptyFirstPageHasMore, cfg.HasMorePolicy())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "liftoff.db"), cfg.DatabasePath())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIFTOFF_DATA_DIR", dir)
	path := writeConfig(t, dir, `
base_url: https://launches.example.com/v3
page_size: 24
search_delay: 250ms
empty_first_page_has_more: false
rate_limit: 2.5
`)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "https://launches.example.com/v3", cfg.BaseURL)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchDelay)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, core.PolicyEmptyPageEnds, cfg.HasMorePolicy())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "base_url: https://file.example.com\nlog_level: warn\n")

	t.Run("file over default", func(t *testing.T) {
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://file.example.com", cfg.BaseURL)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("LIFTOFF_BASE_URL", "https://env.example.com")
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.BaseURL)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("LIFTOFF_BASE_URL", "https://env.example.com")
		flags := testFlags()
		require.NoError(t, flags.Parse([]string{"--base-url", "https://flag.example.com"}))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "https://flag.example.com", cfg.BaseURL)
	})

	t.Run("unset flag does not override", func(t *testing.T) {
		cfg, err := Load(path, testFlags())
		require.NoError(t, err)
		assert.Equal(t, "https://file.example.com", cfg.BaseURL)
		assert.Equal(t, "warn", cfg.LogLevel)
	})
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIFTOFF_DATA_DIR", dir)

	tests := []struct {
		name    string
		content string
	}{
		{"zero page size", "page_size: 0\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad base url", "base_url: ftp://example.com\n"},
		{"negative rate", "rate_limit: -1\n"},
		{"bad relay url", "relay_url: localhost\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, dir, tt.content)
			_, err := Load("", nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDelay)

	_, err = WriteDefault(dir)
	assert.Error(t, err)
}

func TestConfig_YAML(t *testing.T) {
	data, err := Defaults().YAML()
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "base_url: https://api.spacexdata.com/v3")
	assert.Contains(t, out, "search_delay: 500ms")
	assert.Contains(t, out, "request_timeout: 30s")
	assert.NotContains(t, out, "configfile")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".liftoff"), ExpandHome("~/.liftoff"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/var/lib/liftoff", ExpandHome("/var/lib/liftoff"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
