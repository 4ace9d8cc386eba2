package commands

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/auth"
	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/output"
	"github.com/adsctl/adsctl/internal/version"
)

// Check represents a single diagnostic check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pass", "fail", "skip", "warn"
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// DoctorResult holds the complete diagnostic results.
type DoctorResult struct {
	Checks  []Check `json:"checks"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Warned  int     `json:"warned"`
	Skipped int     `json:"skipped"`
}

func (r *DoctorResult) add(c Check) {
	r.Checks = append(r.Checks, c)
	switch c.Status {
	case "pass":
		r.Passed++
	case "fail":
		r.Failed++
	case "warn":
		r.Warned++
	case "skip":
		r.Skipped++
	}
}

// Summary returns a human-readable summary of the results.
func (r *DoctorResult) Summary() string {
	if r.Failed == 0 && r.Warned == 0 && r.Passed > 0 {
		if r.Skipped > 0 {
			return fmt.Sprintf("All %d checks passed, %d skipped", r.Passed, r.Skipped)
		}
		return fmt.Sprintf("All %d checks passed", r.Passed)
	}
	parts := []string{}
	if r.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", r.Passed))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Warned > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", r.Warned, pluralize(r.Warned, "warning", "warnings")))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	return strings.Join(parts, ", ")
}

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check CLI health and diagnose issues",
		Long: `Run diagnostic checks on configuration, credentials, and connectivity.

The doctor command helps troubleshoot common issues by checking:
  - Configuration files and the developer token
  - Stored credentials and token expiration
  - OAuth service reachability
  - Credential file permissions

Examples:
  adsctl doctor          # Run all diagnostic checks
  adsctl doctor --json   # Output results as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			result := &DoctorResult{}
			result.add(checkVersion())
			result.add(checkDeveloperToken(app.Config))
			result.add(checkCredentials(app))
			result.add(checkCredentialFilePerms(app.Config))
			result.add(checkOAuthService(app))

			return app.OK(result, output.WithSummary(result.Summary()))
		},
	}
}

func checkVersion() Check {
	return Check{
		Name:    "version",
		Status:  "pass",
		Message: version.Full(),
	}
}

func checkDeveloperToken(cfg *config.Config) Check {
	if cfg.DeveloperToken == "" {
		return Check{
			Name:    "developer_token",
			Status:  "fail",
			Message: "No developer token configured",
			Hint:    "Set GOOGLE_ADS_DEVELOPER_TOKEN or add developer_token to the global config",
		}
	}
	return Check{
		Name:    "developer_token",
		Status:  "pass",
		Message: fmt.Sprintf("Developer token configured (source: %s)", cfg.Sources["developer_token"]),
	}
}

func checkCredentials(app *appctx.App) Check {
	if os.Getenv("ADSCTL_ACCESS_TOKEN") != "" {
		return Check{
			Name:    "credentials",
			Status:  "pass",
			Message: "Using ADSCTL_ACCESS_TOKEN env var (lifecycle management bypassed)",
		}
	}

	status, err := app.Auth.CheckStatus()
	if err != nil {
		return Check{
			Name:    "credentials",
			Status:  "fail",
			Message: fmt.Sprintf("Failed to read credentials: %v", err),
			Hint:    "Run: adsctl auth login",
		}
	}

	switch status.State {
	case auth.StateValid:
		msg := "Credentials valid"
		if status.Record != nil && status.Record.ExpiresAt > 0 {
			msg = fmt.Sprintf("Credentials valid (expires in %s)",
				time.Until(status.Record.Expiry()).Round(time.Second))
		}
		return Check{Name: "credentials", Status: "pass", Message: msg}
	case auth.StateExpired:
		if status.Record != nil && status.Record.RefreshToken != "" {
			return Check{
				Name:    "credentials",
				Status:  "warn",
				Message: "Access token expired; will refresh on next use",
			}
		}
		return Check{
			Name:    "credentials",
			Status:  "warn",
			Message: "Access token expired and no refresh token stored",
			Hint:    "Run: adsctl auth login",
		}
	case auth.StateCorrupted:
		return Check{
			Name:    "credentials",
			Status:  "fail",
			Message: "Stored credentials are unreadable",
			Hint:    "Run: adsctl auth login",
		}
	default:
		return Check{
			Name:    "credentials",
			Status:  "fail",
			Message: "Not authenticated",
			Hint:    "Run: adsctl auth login",
		}
	}
}

func checkCredentialFilePerms(cfg *config.Config) Check {
	if cfg.CredentialBackend == "keyring" {
		return Check{
			Name:    "credential_file",
			Status:  "skip",
			Message: "Using OS keyring backend",
		}
	}

	fi, err := os.Stat(cfg.CredentialFile)
	if err != nil {
		return Check{
			Name:    "credential_file",
			Status:  "skip",
			Message: "No credential file yet",
		}
	}

	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		return Check{
			Name:    "credential_file",
			Status:  "warn",
			Message: fmt.Sprintf("Credential file is group/world readable (%04o)", perm),
			Hint:    fmt.Sprintf("Run: chmod 600 %s", cfg.CredentialFile),
		}
	}
	return Check{
		Name:    "credential_file",
		Status:  "pass",
		Message: "Credential file permissions are 0600",
	}
}

func checkOAuthService(app *appctx.App) Check {
	// HEAD against the service base; any HTTP response means it is reachable.
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodHead, app.Config.OAuthBaseURL, nil)
	if err != nil {
		return Check{Name: "oauth_service", Status: "fail", Message: err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Check{
			Name:    "oauth_service",
			Status:  "fail",
			Message: fmt.Sprintf("OAuth service unreachable: %v", err),
			Hint:    "Check your network connection",
		}
	}
	resp.Body.Close()
	return Check{
		Name:    "oauth_service",
		Status:  "pass",
		Message: fmt.Sprintf("OAuth service reachable (%s)", app.Config.OAuthBaseURL),
	}
}
