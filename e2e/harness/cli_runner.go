package harness

import (
	"bytes"
	"context"
	"time"

	"github.com/artpar/liftoff/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands against the harness upstream and data
// directory.
type CLIRunner struct {
	harness *E2EHarness
}

// Run executes a CLI command with the given arguments.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{
		"--data-dir", r.harness.dataDir,
		"--base-url", r.harness.server.URL,
		"--log-level", "error",
	}, args...))

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Launches runs the launches command.
func (r *CLIRunner) Launches(opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"launches"}, opts...)...)
}

// Favorites runs a favorites subcommand.
func (r *CLIRunner) Favorites(sub string, args ...string) (*CLIResult, error) {
	return r.Run(append([]string{"favorites", sub}, args...)...)
}
