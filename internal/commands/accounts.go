package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/output"
)

// NewAccountsCmd creates the accounts command.
func NewAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account", "customers"},
		Short:   "List accessible Google Ads accounts",
		Long:    "List the Google Ads accounts accessible with the current credentials, including names and settings where available.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			accounts, err := app.Ads.ListAccessibleCustomers(cmd.Context())
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d accessible %s", len(accounts), pluralize(len(accounts), "account", "accounts"))
			breadcrumbs := []output.Breadcrumb{
				{
					Action:      "gaql",
					Cmd:         "adsctl gaql --customer-id <id> 'SELECT campaign.id, campaign.name FROM campaign'",
					Description: "Query an account",
				},
			}
			if len(accounts) == 0 {
				breadcrumbs = []output.Breadcrumb{
					{
						Action:      "login",
						Cmd:         "adsctl auth login",
						Description: "Authenticate with a different Google account",
					},
				}
			}

			return app.OK(accounts,
				output.WithSummary(summary),
				output.WithBreadcrumbs(breadcrumbs...),
			)
		},
	}
}

// pluralize returns singular or plural based on count.
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
