package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/artpar/liftoff/internal/app"
	"github.com/artpar/liftoff/internal/config"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/tui/views"
)

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	g := &GlobalOptions{}
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:     "liftoff",
		Short:   "liftoff - browse spaceflight launches",
		Long:    "liftoff is a terminal browser for the public launch catalog, with favorites and a small HTTP relay.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.ConfigFile, "config", "", "Config file (default <data-dir>/config.yaml)")
	flags.String("base-url", defaults.BaseURL, "Upstream launch service base URL")
	flags.String("relay-url", "", "Relay base URL; empty fetches from the upstream directly")
	flags.String("data-dir", defaults.DataDir, "Directory for the database, logs and config")
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCommand(g))
	cmd.AddCommand(NewLaunchesCommand(g))
	cmd.AddCommand(NewFavoritesCommand(g))
	cmd.AddCommand(NewConfigCommand(g))

	return cmd
}

// loadConfig resolves configuration from the config file, the
// environment and the flags cmd was invoked with.
func loadConfig(cmd *cobra.Command, g *GlobalOptions) (config.Config, error) {
	return config.Load(g.ConfigFile, cmd.Flags())
}

// setup builds the application for a non-interactive command, logging
// to stderr.
func setup(cmd *cobra.Command, g *GlobalOptions) (*app.App, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.WithLogger(logger))
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// runTUI starts the TUI application. It logs to a file so log output
// never lands on the screen.
func runTUI(cmd *cobra.Command, g *GlobalOptions) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	logger, logFile, err := logging.OpenFile(cfg.DataDir, cfg.LogLevel, time.Now())
	if err != nil {
		return err
	}
	defer logFile.Close()

	application, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orch := application.NewOrchestrator()
	done := make(chan struct{})
	go func() {
		defer close(done)
		orch.Run(ctx)
	}()

	view := views.NewMainView(orch, application.Favorites(), application.Details(),
		views.WithLogger(logger.WithPrefix("tui")))
	defer view.Close()

	logger.Info("tui started", "fetcher", fetcherName(cfg), "data_dir", cfg.DataDir)

	p := tea.NewProgram(tuiModel{view: view}, tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	<-done
	orch.Close()

	if runErr != nil {
		logger.Error("tui exited", "err", runErr)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		return runErr
	}
	return nil
}

func fetcherName(cfg config.Config) string {
	if cfg.RelayURL != "" {
		return "relay " + cfg.RelayURL
	}
	return "upstream " + cfg.BaseURL
}

// commandLogger returns the app logger with a per-command prefix.
func commandLogger(a *app.App, name string) *log.Logger {
	return a.Logger().WithPrefix(name)
}
