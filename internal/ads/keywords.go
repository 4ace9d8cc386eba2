package ads

import (
	"context"
	"strconv"
	"strings"

	"github.com/adsctl/adsctl/internal/output"
)

// Keyword planner defaults (English, United States, search+partners).
const (
	DefaultLanguageID = "1000"
	DefaultGeoTarget  = "2840"
	DefaultNetwork    = "GOOGLE_SEARCH_AND_PARTNERS"
)

// KeywordIdeasRequest asks KeywordPlanIdeaService for keyword suggestions
// seeded by keywords and/or a page URL.
type KeywordIdeasRequest struct {
	CustomerID   string
	Keywords     []string
	PageURL      string
	LanguageID   string
	GeoTargetIDs []string
	Network      string
	IncludeAdult bool
}

// KeywordIdea is one suggestion with its traffic metrics.
type KeywordIdea struct {
	Text                   string `json:"text"`
	AvgMonthlySearches     int64  `json:"avg_monthly_searches"`
	Competition            string `json:"competition,omitempty"`
	LowTopOfPageBidMicros  int64  `json:"low_top_of_page_bid_micros,omitempty"`
	HighTopOfPageBidMicros int64  `json:"high_top_of_page_bid_micros,omitempty"`
}

// GenerateKeywordIdeas calls generateKeywordIdeas and flattens the response
// into text + metrics rows.
func (c *Client) GenerateKeywordIdeas(ctx context.Context, req KeywordIdeasRequest) ([]KeywordIdea, error) {
	if err := c.RequireDeveloperToken(); err != nil {
		return nil, err
	}
	customerID, err := c.RequireCustomer(req.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(req.Keywords) == 0 && req.PageURL == "" {
		return nil, output.ErrUsage("At least one seed keyword or a page URL is required")
	}

	languageID := req.LanguageID
	if languageID == "" {
		languageID = DefaultLanguageID
	}
	network := req.Network
	if network == "" {
		network = DefaultNetwork
	}
	geoTargets := req.GeoTargetIDs
	if len(geoTargets) == 0 {
		geoTargets = []string{DefaultGeoTarget}
	}

	body := map[string]any{
		"customerId":           customerID,
		"language":             "languageConstants/" + languageID,
		"includeAdultKeywords": req.IncludeAdult,
		"keywordPlanNetwork":   network,
	}
	geos := make([]string, 0, len(geoTargets))
	for _, g := range geoTargets {
		geos = append(geos, "geoTargetConstants/"+g)
	}
	body["geoTargetConstants"] = geos
	if len(req.Keywords) > 0 {
		body["keywordSeed"] = map[string]any{"keywords": req.Keywords}
	}
	if req.PageURL != "" {
		body["urlSeed"] = map[string]any{"url": req.PageURL}
	}

	resp, err := c.Post(ctx, "/customers:generateKeywordIdeas", body)
	if err != nil {
		return nil, err
	}

	// int64 metrics arrive as JSON strings per the proto3 JSON mapping, but
	// int32 ones come through as plain numbers. flexInt64 accepts both.
	var parsed struct {
		Results []struct {
			Text               string `json:"text"`
			KeywordIdeaMetrics struct {
				AvgMonthlySearches     flexInt64 `json:"avgMonthlySearches"`
				Competition            string    `json:"competition"`
				LowTopOfPageBidMicros  flexInt64 `json:"lowTopOfPageBidMicros"`
				HighTopOfPageBidMicros flexInt64 `json:"highTopOfPageBidMicros"`
			} `json:"keywordIdeaMetrics"`
		} `json:"results"`
	}
	if err := resp.UnmarshalData(&parsed); err != nil {
		return nil, err
	}

	ideas := make([]KeywordIdea, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		ideas = append(ideas, KeywordIdea{
			Text:                   item.Text,
			AvgMonthlySearches:     int64(item.KeywordIdeaMetrics.AvgMonthlySearches),
			Competition:            item.KeywordIdeaMetrics.Competition,
			LowTopOfPageBidMicros:  int64(item.KeywordIdeaMetrics.LowTopOfPageBidMicros),
			HighTopOfPageBidMicros: int64(item.KeywordIdeaMetrics.HighTopOfPageBidMicros),
		})
	}
	return ideas, nil
}

type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}
