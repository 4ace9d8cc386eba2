package ads

import (
	"context"
	"encoding/json"

	"github.com/adsctl/adsctl/internal/output"
)

// Search paging defaults, matching the googleAds:search REST endpoint.
const (
	DefaultPageSize = 1000
	DefaultMaxPages = 10
)

// SearchRequest is a GAQL query against one customer account.
type SearchRequest struct {
	CustomerID string
	Query      string
	PageSize   int
	MaxPages   int
}

// SearchResult holds the combined rows plus paging metadata.
type SearchResult struct {
	CustomerID  string            `json:"customer_id"`
	ResultCount int               `json:"result_count"`
	Results     []json.RawMessage `json:"results"`
	Pages       int               `json:"pages"`
	Truncated   bool              `json:"truncated,omitempty"`
}

// Search executes a GAQL query, following nextPageToken up to MaxPages.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := c.RequireDeveloperToken(); err != nil {
		return nil, err
	}
	customerID, err := c.RequireCustomer(req.CustomerID)
	if err != nil {
		return nil, err
	}
	if req.Query == "" {
		return nil, output.ErrUsage("A GAQL query is required")
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	url := "/customers/" + customerID + "/googleAds:search"
	result := &SearchResult{CustomerID: customerID}

	pageToken := ""
	for result.Pages < maxPages {
		body := map[string]any{
			"query":    req.Query,
			"pageSize": pageSize,
		}
		if pageToken != "" {
			body["pageToken"] = pageToken
		}

		resp, err := c.Post(ctx, url, body)
		if err != nil {
			return nil, err
		}

		var page struct {
			Results       []json.RawMessage `json:"results"`
			NextPageToken string            `json:"nextPageToken"`
		}
		if err := resp.UnmarshalData(&page); err != nil {
			return nil, err
		}

		result.Results = append(result.Results, page.Results...)
		result.Pages++
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	result.ResultCount = len(result.Results)
	result.Truncated = pageToken != ""
	return result, nil
}
