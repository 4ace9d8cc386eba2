package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/ads"
	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/output"
)

// NewKeywordsCmd creates the keywords command group.
func NewKeywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "Keyword planning tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return output.ErrUsageHint("Action required", "Run: adsctl keywords ideas --help")
		},
	}

	cmd.AddCommand(newKeywordIdeasCmd())

	return cmd
}

func newKeywordIdeasCmd() *cobra.Command {
	var pageURL string
	var languageID string
	var geoTargets []string
	var network string
	var includeAdult bool

	cmd := &cobra.Command{
		Use:   "ideas [keyword]...",
		Short: "Generate keyword ideas",
		Long: `Generate keyword ideas with search volume and competition metrics.

Seed the planner with keywords, a landing page URL, or both:

  adsctl keywords ideas "running shoes" "trail runners"
  adsctl keywords ideas --page-url https://example.com/shoes
  adsctl keywords ideas "running shoes" --geo 2840 --geo 2124`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if len(args) == 0 && pageURL == "" {
				return output.ErrUsageHint("Keywords or a page URL are required",
					"Example: adsctl keywords ideas \"running shoes\"")
			}

			ideas, err := app.Ads.GenerateKeywordIdeas(cmd.Context(), ads.KeywordIdeasRequest{
				CustomerID:   app.Flags.CustomerID,
				Keywords:     args,
				PageURL:      pageURL,
				LanguageID:   languageID,
				GeoTargetIDs: geoTargets,
				Network:      network,
				IncludeAdult: includeAdult,
			})
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d keyword %s", len(ideas), pluralize(len(ideas), "idea", "ideas"))
			return app.OK(ideas, output.WithSummary(summary))
		},
	}

	cmd.Flags().StringVar(&pageURL, "page-url", "", "Landing page URL to seed the planner")
	cmd.Flags().StringVar(&languageID, "language", "", "Language constant ID (default 1000, English)")
	cmd.Flags().StringArrayVar(&geoTargets, "geo", nil, "Geo target constant ID (repeatable; default 2840, United States)")
	cmd.Flags().StringVar(&network, "network", "", "Keyword plan network (default GOOGLE_SEARCH_AND_PARTNERS)")
	cmd.Flags().BoolVar(&includeAdult, "include-adult", false, "Include adult keywords")

	return cmd
}
