package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/artpar/liftoff/internal/app"
	"github.com/artpar/liftoff/internal/config"
)

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Long:  "Serve the paged launch list, favorites and the favorites event stream over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}

	cmd.Flags().String("listen", defaults.ListenAddr, "Address to listen on")
	cmd.Flags().Int("max-conns", defaults.MaxConns, "Maximum concurrent connections (0 = unlimited)")

	return cmd
}

func runServe(cmd *cobra.Command, g *GlobalOptions) error {
	application, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	server := application.NewRelay()
	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Relay listening on %s\n", server.ListenAddr())

	group.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})
	group.Go(func() error {
		return logFavoriteChanges(ctx, application)
	})

	return group.Wait()
}

// logFavoriteChanges logs favorites count changes, including ones made
// by other processes sharing the database.
func logFavoriteChanges(ctx context.Context, a *app.App) error {
	logger := commandLogger(a, "serve")
	changes, cancel := a.Favorites().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("favorites changed", "count", c.Count, "external", c.External)
		}
	}
}
