package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/ads"
	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/output"
)

// NewGAQLCmd creates the gaql command.
func NewGAQLCmd() *cobra.Command {
	var pageSize int
	var maxPages int

	cmd := &cobra.Command{
		Use:     "gaql [query]",
		Aliases: []string{"query", "search"},
		Short:   "Run a GAQL query",
		Long: `Run a Google Ads Query Language (GAQL) query against an account.

The query can be passed as an argument or piped on stdin:

  adsctl gaql 'SELECT campaign.id, campaign.name FROM campaign'
  echo 'SELECT customer.id FROM customer' | adsctl gaql

Results are paged automatically up to --max-pages pages.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			query, err := queryFromArgsOrStdin(args)
			if err != nil {
				return err
			}

			result, err := app.Ads.Search(cmd.Context(), ads.SearchRequest{
				CustomerID: app.Flags.CustomerID,
				Query:      query,
				PageSize:   pageSize,
				MaxPages:   maxPages,
			})
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d %s", result.ResultCount, pluralize(result.ResultCount, "row", "rows"))
			if result.Truncated {
				summary += " (truncated; raise --max-pages for more)"
			}

			return app.OK(result.Results, output.WithSummary(summary))
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", ads.DefaultPageSize, "Rows per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", ads.DefaultMaxPages, "Maximum pages to fetch")

	return cmd
}

// queryFromArgsOrStdin returns the GAQL query from the argument, or from
// stdin when no argument is given and stdin is not a terminal.
func queryFromArgsOrStdin(args []string) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}

	fi, err := os.Stdin.Stat()
	if err == nil && (fi.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", output.ErrUsage("Failed to read query from stdin")
		}
		if q := strings.TrimSpace(string(data)); q != "" {
			return q, nil
		}
	}

	return "", output.ErrUsageHint("A GAQL query is required",
		"Example: adsctl gaql 'SELECT campaign.id, campaign.name FROM campaign'")
}
