package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/liftoff/internal/exporter"
	"github.com/artpar/liftoff/internal/importer"
	"github.com/artpar/liftoff/internal/protocol/websocket"
)

// NewFavoritesCommand creates the favorites command and its subcommands.
func NewFavoritesCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite launches",
	}

	cmd.AddCommand(newFavoritesListCommand(g))
	cmd.AddCommand(newFavoritesAddCommand(g))
	cmd.AddCommand(newFavoritesRemoveCommand(g))
	cmd.AddCommand(newFavoritesClearCommand(g))
	cmd.AddCommand(newFavoritesExportCommand(g))
	cmd.AddCommand(newFavoritesImportCommand(g))
	cmd.AddCommand(newFavoritesWatchCommand(g))

	return cmd
}

func newFavoritesListCommand(g *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			items, err := application.Favorites().List(cmd.Context())
			if err != nil {
				return err
			}

			if format == "" || format == "text" {
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No favorites")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), launchTable(items))
				return nil
			}

			result, err := application.Exporters().Export(cmd.Context(), exporter.Format(format), items)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(result.Content)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml, curl)")
	return cmd
}

func newFavoritesAddCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add FLIGHT...",
		Short: "Fetch launches by flight number and add them to favorites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flights, err := parseFlights(args)
			if err != nil {
				return err
			}

			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for _, flight := range flights {
				launch, err := application.Upstream().FetchLaunch(ctx, flight)
				if err != nil {
					return fmt.Errorf("fetching launch %d: %w", flight, err)
				}
				added, err := application.Favorites().Add(ctx, launch)
				if err != nil {
					return err
				}
				if err := application.Details().Put(ctx, launch); err != nil {
					commandLogger(application, "favorites").Warn("failed to cache launch", "flight", flight, "err", err)
				}
				if added {
					fmt.Fprintf(out, "Added #%d %s\n", launch.FlightNumber, launch.MissionName)
				} else {
					fmt.Fprintf(out, "#%d %s is already a favorite\n", launch.FlightNumber, launch.MissionName)
				}
			}
			return nil
		},
	}
}

func newFavoritesRemoveCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove FLIGHT...",
		Aliases: []string{"rm"},
		Short:   "Remove favorites by flight number",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flights, err := parseFlights(args)
			if err != nil {
				return err
			}

			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			n, err := application.Favorites().BulkRemove(cmd.Context(), flights)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorites\n", n)
			return nil
		},
	}
}

func newFavoritesClearCommand(g *GlobalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			n := application.Favorites().Count(ctx)
			if n > 0 && !yes {
				return fmt.Errorf("refusing to remove %d favorites without --yes", n)
			}
			if err := application.Favorites().Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorites\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newFavoritesExportCommand(g *GlobalOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			items, err := application.Favorites().List(cmd.Context())
			if err != nil {
				return err
			}
			result, err := application.Exporters().Export(cmd.Context(), exporter.Format(format), items)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(result.Content)
				return err
			}
			if err := os.WriteFile(output, result.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d favorites to %s\n", result.Count, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatJSON), "Export format (json, yaml, curl)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newFavoritesImportCommand(g *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Add favorites from a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			application, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer application.Close()

			registry := application.Importers()
			f := importer.Format(format)
			if f == importer.FormatAuto {
				f = registry.FormatForFile(args[0])
			}

			ctx := cmd.Context()
			result, err := registry.Import(ctx, f, content)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}

			added := 0
			for _, launch := range result.Launches {
				ok, err := application.Favorites().Add(ctx, launch)
				if err != nil {
					return err
				}
				if ok {
					added++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d launches from %s (%d new)\n",
				len(result.Launches), result.SourceFormat, added)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(importer.FormatAuto), "Input format (auto, json, yaml)")
	return cmd
}

func newFavoritesWatchCommand(g *GlobalOptions) *cobra.Command {
	var events int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the favorites count whenever the relay reports a change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cfg.RelayURL == "" {
				return errors.New("favorites watch needs a relay; set relay_url or --relay-url")
			}
			endpoint, err := websocket.EventsURL(cfg.RelayURL)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := websocket.Dial(ctx, endpoint, nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			return watchEvents(ctx, conn, cmd, events)
		},
	}

	cmd.Flags().IntVarP(&events, "events", "n", 0, "Stop after this many events (0 = until interrupted)")
	return cmd
}

func watchEvents(ctx context.Context, conn *websocket.Connection, cmd *cobra.Command, limit int) error {
	out := cmd.OutOrStdout()
	for seen := 0; limit <= 0 || seen < limit; seen++ {
		ev, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "favorites: %d\n", ev.Count)
	}
	return nil
}

// parseFlights parses positive flight numbers, accepting "#12" as well.
func parseFlights(args []string) ([]int, error) {
	flights := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid flight number %q", arg)
		}
		flights = append(flights, n)
	}
	return flights, nil
}
