// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/auth"
	"github.com/adsctl/adsctl/internal/output"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage Google Ads authentication including login, logout, and status.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
		newAuthTokenCmd(),
		newAuthEndpointsCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google Ads",
		Long:  "Start the hosted OAuth flow to obtain Google Ads credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			app.NoBrowser = noBrowser
			fmt.Fprintln(os.Stderr, "Starting Google Ads authentication...")

			rec, err := app.Auth.Login(cmd.Context())
			if err != nil {
				return err
			}

			data := map[string]any{
				"status": "authenticated",
			}
			if rec.ExpiresAt > 0 {
				data["expires_at"] = rec.ExpiresAt
			}
			return app.OK(data,
				output.WithSummary("Authentication successful"),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "accounts",
						Cmd:         "adsctl accounts",
						Description: "List accessible accounts",
					},
				),
			)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Remove stored authentication credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if err := app.Auth.ClearCredentials(); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "logged_out",
			}, output.WithSummary("Successfully logged out"))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display the credential state without refreshing or mutating anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			// ADSCTL_ACCESS_TOKEN bypasses the managed lifecycle
			if envToken := os.Getenv("ADSCTL_ACCESS_TOKEN"); envToken != "" {
				return app.OK(map[string]any{
					"state":  "valid",
					"source": "ADSCTL_ACCESS_TOKEN",
				}, output.WithSummary("Authenticated via ADSCTL_ACCESS_TOKEN env var"))
			}

			status, err := app.Auth.CheckStatus()
			if err != nil {
				return err
			}

			data := map[string]any{
				"state":  status.State.String(),
				"source": "oauth",
			}
			summary := statusSummary(status)

			if rec := status.Record; rec != nil {
				if rec.Scope != "" {
					data["scope"] = rec.Scope
				}
				if rec.ExpiresAt > 0 {
					data["expires_at"] = rec.ExpiresAt
					data["expires_in"] = time.Until(rec.Expiry()).Round(time.Second).String()
				}
				data["has_refresh_token"] = rec.RefreshToken != ""
			}

			opts := []output.ResponseOption{output.WithSummary(summary)}
			if status.State != auth.StateValid {
				opts = append(opts, output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "login",
					Cmd:         "adsctl auth login",
					Description: "Authenticate with Google Ads",
				}))
			}
			return app.OK(data, opts...)
		},
	}
}

func statusSummary(status auth.Status) string {
	switch status.State {
	case auth.StateValid:
		return "Authenticated"
	case auth.StateExpired:
		if status.Record != nil && status.Record.RefreshToken != "" {
			return "Token expired (will refresh on next use)"
		}
		return "Token expired (re-authentication required)"
	case auth.StateCorrupted:
		return "Stored credentials are unreadable"
	default:
		return "Not authenticated"
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token",
		Long:  "Force a refresh of the OAuth access token, even if it is still valid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if _, err := app.Auth.ForceRefresh(cmd.Context()); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "refreshed",
			}, output.WithSummary("Token refreshed successfully"))
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the access token",
		Long: `Print a valid access token to stdout for use with other tools.

If ADSCTL_ACCESS_TOKEN is set, it is returned directly (no refresh).
Otherwise, stored credentials are used and auto-refreshed if near expiry.

Examples:
  export TOKEN=$(adsctl auth token)
  curl -H "Authorization: Bearer $(adsctl auth token)" ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			token, err := app.Tokens.EnsureToken(cmd.Context())
			if err != nil {
				return err
			}

			// Raw output by default for shell substitution; JSON envelope
			// only when explicitly requested.
			if app.Flags.JSON || app.Flags.Agent {
				return app.OK(map[string]string{"token": token})
			}

			fmt.Println(token)
			return nil
		},
	}
}

func newAuthEndpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Show OAuth service endpoints",
		Long:  "Display the resolved OAuth endpoint URLs. No network calls are made.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			ep := app.Auth.Endpoints()
			return app.OK(map[string]string{
				"start":         ep.Start,
				"get_token":     ep.GetToken,
				"refresh_token": ep.RefreshToken,
			}, output.WithSummary("OAuth endpoints"))
		},
	}
}
