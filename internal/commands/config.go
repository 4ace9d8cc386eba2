package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/output"
)

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage adsctl configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > local > global > system > defaults

Config locations:
  - System: /etc/adsctl/config.json
  - Global: ~/.config/adsctl/config.json
  - Local:  .adsctl/config.json

Local config cannot override the OAuth service URL, API base URL, or
credential file location; those only come from trusted sources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  "Display the current effective configuration with source information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	cfg := app.Config

	configData := make(map[string]any)

	keys := []struct {
		key     string
		value   string
		include bool
	}{
		{"oauth_base_url", cfg.OAuthBaseURL, cfg.OAuthBaseURL != ""},
		{"ads_base_url", cfg.AdsBaseURL, cfg.AdsBaseURL != ""},
		{"api_version", cfg.APIVersion, cfg.APIVersion != ""},
		{"developer_token", redactToken(cfg.DeveloperToken), cfg.DeveloperToken != ""},
		{"customer_id", cfg.CustomerID, cfg.CustomerID != ""},
		{"login_customer_id", cfg.LoginCustomerID, cfg.LoginCustomerID != ""},
		{"credential_file", cfg.CredentialFile, cfg.CredentialFile != ""},
		{"credential_backend", cfg.CredentialBackend, cfg.CredentialBackend != ""},
		{"skew_seconds", fmt.Sprintf("%d", cfg.SkewSeconds), true},
		{"auth_wait_seconds", fmt.Sprintf("%d", cfg.AuthWaitSeconds), true},
		{"format", cfg.Format, cfg.Format != ""},
	}

	for _, k := range keys {
		if !k.include {
			continue
		}
		source := cfg.Sources[k.key]
		if source == "" {
			source = string(config.SourceDefault)
		}
		configData[k.key] = map[string]string{
			"value":  k.value,
			"source": source,
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration"),
		output.WithBreadcrumbs(
			output.Breadcrumb{
				Action:      "init",
				Cmd:         "adsctl config init",
				Description: "Create a local config file",
			},
		),
	)
}

// redactToken keeps the first 4 characters for identification.
func redactToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}

func newConfigInitCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a config file",
		Long:  "Create a local .adsctl/config.json in the current directory, or the global config with --global.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			dir := config.LocalConfigDir
			if global {
				dir = config.GlobalConfigDir()
			}
			path := filepath.Join(dir, "config.json")

			if _, err := os.Stat(path); err == nil {
				return output.ErrUsageHint("Config file already exists: "+path,
					"Edit it directly, or remove it and re-run init")
			}

			template := map[string]any{
				"customer_id":       "",
				"login_customer_id": "",
			}
			if global {
				template["developer_token"] = ""
			}

			data, err := json.MarshalIndent(template, "", "  ")
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}

			return app.OK(map[string]string{
				"path": path,
			}, output.WithSummary("Created "+path))
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config instead of a local one")

	return cmd
}
