// Package harness provides E2E testing utilities for liftoff.
package harness

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/artpar/liftoff/e2e/testserver"
	"github.com/artpar/liftoff/internal/config"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	t       *testing.T
	server  *testserver.Server
	dataDir string
	timeout time.Duration
}

// Config configures the harness.
type Config struct {
	// Launches is the upstream catalog. Default: 30 sample launches.
	Launches []testserver.Launch
	// Routes replaces the catalog routes when set.
	Routes  map[string]http.HandlerFunc
	Timeout time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	h := &E2EHarness{
		t:       t,
		timeout: cfg.Timeout,
	}

	dataDir, err := os.MkdirTemp("", "liftoff-e2e-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	h.dataDir = dataDir

	if len(cfg.Routes) > 0 {
		h.server = testserver.New(cfg.Routes)
	} else {
		if cfg.Launches == nil {
			cfg.Launches = testserver.SampleLaunches(30)
		}
		h.server = testserver.NewCatalog(cfg.Launches)
	}

	t.Cleanup(h.cleanup)
	return h
}

func (h *E2EHarness) cleanup() {
	h.server.Close()
	os.RemoveAll(h.dataDir)
}

// ServerURL returns the upstream URL.
func (h *E2EHarness) ServerURL() string {
	return h.server.URL
}

// Server returns the upstream test server.
func (h *E2EHarness) Server() *testserver.Server {
	return h.server
}

// DataDir returns the data directory shared by every runner.
func (h *E2EHarness) DataDir() string {
	return h.dataDir
}

// Timeout returns the configured timeout.
func (h *E2EHarness) Timeout() time.Duration {
	return h.timeout
}

// T returns the testing.T instance.
func (h *E2EHarness) T() *testing.T {
	return h.t
}

// AppConfig returns the configuration TUI sessions run with: the
// harness upstream and data directory, with short delays.
func (h *E2EHarness) AppConfig() config.Config {
	cfg := config.Defaults()
	cfg.BaseURL = h.server.URL
	cfg.DataDir = h.dataDir
	cfg.SearchDelay = 50 * time.Millisecond
	cfg.ExternalPoll = 100 * time.Millisecond
	cfg.RequestTimeout = h.timeout
	cfg.LogLevel = "error"
	return cfg
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}

// TUI returns a TUI runner for this harness.
func (h *E2EHarness) TUI() *TUIRunner {
	return &TUIRunner{harness: h}
}
