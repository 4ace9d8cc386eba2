// Package mcpserver exposes Google Ads operations as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/adsctl/adsctl/internal/ads"
	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/version"
)

// Server wraps an MCP stdio server bound to the shared application context.
type Server struct {
	app *appctx.App
	mcp *server.MCPServer
}

// New creates an MCP server with all adsctl tools registered.
func New(app *appctx.App) *Server {
	s := &Server{
		app: app,
		mcp: server.NewMCPServer(
			"adsctl",
			version.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	listAccountsTool := mcp.NewTool("list_accounts",
		mcp.WithDescription("List Google Ads accounts accessible with the current credentials"),
	)
	s.mcp.AddTool(listAccountsTool, s.handleListAccounts)

	runGAQLTool := mcp.NewTool("run_gaql",
		mcp.WithDescription("Run a GAQL (Google Ads Query Language) query and return the raw result rows"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("GAQL query, e.g. SELECT campaign.id, campaign.name FROM campaign"),
		),
		mcp.WithString("customer_id",
			mcp.Description("Customer ID to query (defaults to the configured customer)"),
		),
	)
	s.mcp.AddTool(runGAQLTool, s.handleRunGAQL)

	keywordIdeasTool := mcp.NewTool("keyword_ideas",
		mcp.WithDescription("Generate keyword ideas with search volume and competition metrics"),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated seed keywords"),
		),
		mcp.WithString("page_url",
			mcp.Description("Landing page URL to use as a seed instead of (or with) keywords"),
		),
		mcp.WithString("customer_id",
			mcp.Description("Customer ID to query (defaults to the configured customer)"),
		),
		mcp.WithString("geo_targets",
			mcp.Description("Comma-separated geo target constant IDs (default: 2840, United States)"),
		),
		mcp.WithString("language_id",
			mcp.Description("Language constant ID (default: 1000, English)"),
		),
		mcp.WithBoolean("include_adult",
			mcp.Description("Include adult keywords (default: false)"),
		),
	)
	s.mcp.AddTool(keywordIdeasTool, s.handleKeywordIdeas)

	authStatusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Report the current credential state without mutating anything"),
	)
	s.mcp.AddTool(authStatusTool, s.handleAuthStatus)
}

func (s *Server) handleListAccounts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accounts, err := s.app.Ads.ListAccessibleCustomers(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func (s *Server) handleRunGAQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.app.Ads.Search(ctx, ads.SearchRequest{
		CustomerID: request.GetString("customer_id", ""),
		Query:      query,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleKeywordIdeas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := ads.KeywordIdeasRequest{
		CustomerID:   request.GetString("customer_id", ""),
		Keywords:     splitList(request.GetString("keywords", "")),
		PageURL:      request.GetString("page_url", ""),
		LanguageID:   request.GetString("language_id", ""),
		GeoTargetIDs: splitList(request.GetString("geo_targets", "")),
		IncludeAdult: request.GetBool("include_adult", false),
	}
	if len(req.Keywords) == 0 && req.PageURL == "" {
		return mcp.NewToolResultError("provide keywords or page_url"), nil
	}

	ideas, err := s.app.Ads.GenerateKeywordIdeas(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"ideas": ideas,
		"count": len(ideas),
	})
}

func (s *Server) handleAuthStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.app.Auth.CheckStatus()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data := map[string]any{
		"state": status.State.String(),
	}
	if status.Record != nil && status.Record.ExpiresAt > 0 {
		data["expires_at"] = status.Record.ExpiresAt
	}
	return jsonResult(data)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
