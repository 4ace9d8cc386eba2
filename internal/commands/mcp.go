package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/mcpserver"
	"github.com/adsctl/adsctl/internal/output"
)

// NewMCPCmd creates the mcp command group.
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server (Model Context Protocol)",
		Long: `MCP server for AI integration.

The MCP server lets AI assistants list accounts, run GAQL queries, and
generate keyword ideas using the stored credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return output.ErrUsageHint("Action required", "Run: adsctl mcp serve")
		},
	}

	cmd.AddCommand(newMCPServeCmd())

	return cmd
}

func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server on stdio",
		Long:  "Start the MCP server on stdio for AI assistant integration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			// Protocol traffic owns stdout; interactive login prompts would
			// corrupt it, so browser opening stays suppressed.
			app.NoBrowser = true

			return mcpserver.New(app).Serve()
		},
	}
}
