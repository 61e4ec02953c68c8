package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/liftoff/internal/core"
)

// LaunchesOptions holds options for the launches command.
type LaunchesOptions struct {
	Search string
	Sort   string
	Page   int
	Limit  int
	JSON   bool
	YAML   bool
}

// NewLaunchesCommand creates the launches command.
func NewLaunchesCommand(g *GlobalOptions) *cobra.Command {
	opts := &LaunchesOptions{}

	cmd := &cobra.Command{
		Use:   "launches",
		Short: "Fetch one page of launches",
		Long:  "Fetch one page of launches through the relay, or straight from the upstream when no relay is configured.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunches(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Mission name search")
	cmd.Flags().StringVar(&opts.Sort, "sort", core.DefaultFilters().SortValue(), "Sort as field-order, e.g. flight_number-desc")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "Launches per page (default page_size)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output the page as JSON")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "Output the page as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return cmd
}

func runLaunches(cmd *cobra.Command, g *GlobalOptions, opts *LaunchesOptions) error {
	field, order, err := core.ParseSortValue(opts.Sort)
	if err != nil {
		return err
	}
	if opts.Page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", opts.Page)
	}

	application, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer application.Close()

	limit := opts.Limit
	if limit <= 0 {
		limit = application.Config().PageSize
	}

	page, err := application.Fetcher().FetchPage(cmd.Context(), core.PageRequest{
		Filters: core.DefaultFilters().WithSearch(opts.Search).WithSort(field, order),
		Page:    opts.Page,
		Limit:   limit,
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	switch {
	case opts.JSON:
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(page)
	case opts.YAML:
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(page); err != nil {
			return err
		}
		return encoder.Close()
	}
	return outputPage(cmd, page)
}

func outputPage(cmd *cobra.Command, page core.Page) error {
	out := cmd.OutOrStdout()

	if len(page.Launches) == 0 {
		fmt.Fprintln(out, "No launches found")
		return nil
	}

	fmt.Fprintln(out, launchTable(page.Launches))

	more := "no more results"
	if page.HasMore {
		more = fmt.Sprintf("more with --page %d", page.Page+1)
	}
	fmt.Fprintf(out, "Page %d, %d launches, %s\n", page.Page, len(page.Launches), more)
	return nil
}

// launchTable renders launches as a bordered table.
func launchTable(launches []core.Launch) string {
	rows := make([][]string, 0, len(launches))
	for _, l := range launches {
		date := l.LaunchDateUTC
		if t, err := l.LaunchTime(); err == nil {
			date = t.UTC().Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.Itoa(l.FlightNumber),
			l.MissionName,
			l.Rocket.RocketName,
			date,
			l.Outcome().String(),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FLIGHT", "MISSION", "ROCKET", "DATE", "OUTCOME").
		Rows(rows...).
		String()
}
