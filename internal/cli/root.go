// Package cli wires the root command and global flags.
package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/adsctl/adsctl/internal/appctx"
	"github.com/adsctl/adsctl/internal/commands"
	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/output"
	"github.com/adsctl/adsctl/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags
	var formatFlag string

	cmd := &cobra.Command{
		Use:           "adsctl",
		Short:         "Command-line interface for Google Ads",
		Long:          "adsctl is a CLI tool for querying Google Ads accounts, running GAQL, and keyword planning, with managed OAuth credentials.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				CustomerID:      flags.CustomerID,
				LoginCustomerID: flags.LoginCustomerID,
				DeveloperToken:  flags.DeveloperToken,
				CredentialFile:  flags.CredentialFile,
				Format:          formatFlag,
			})
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg)
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	// Output format flags
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVarP(&flags.MD, "md", "m", false, "Output as Markdown (portable)")
	cmd.PersistentFlags().BoolVar(&flags.MD, "markdown", false, "Output as Markdown (portable)")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	cmd.PersistentFlags().BoolVar(&flags.Count, "count", false, "Output only count")
	cmd.PersistentFlags().BoolVar(&flags.Agent, "agent", false, "Agent mode (JSON + quiet)")
	cmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Output format: json, markdown, styled, quiet, ids, count")

	// Context flags
	cmd.PersistentFlags().StringVarP(&flags.CustomerID, "customer-id", "c", "", "Customer ID to operate on")
	cmd.PersistentFlags().StringVar(&flags.LoginCustomerID, "login-customer-id", "", "Manager account ID for login-customer-id header")
	cmd.PersistentFlags().StringVar(&flags.DeveloperToken, "developer-token", "", "Google Ads developer token")
	cmd.PersistentFlags().StringVar(&flags.CredentialFile, "credential-file", "", "Path to the credential file")

	// Behavior flags
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for ops, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	return cmd
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewAccountsCmd())
	cmd.AddCommand(commands.NewGAQLCmd())
	cmd.AddCommand(commands.NewKeywordsCmd())
	cmd.AddCommand(commands.NewConfigCmd())
	cmd.AddCommand(commands.NewDoctorCmd())
	cmd.AddCommand(commands.NewMCPCmd())

	// ExecuteC returns the executed command, for correct context access
	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	err = transformCobraError(err)
	apiErr := output.AsError(err)

	// Prefer app.Err() when the app is available (for --stats support)
	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		_ = app.Err(err)
		os.Exit(apiErr.ExitCode())
	}

	// Fallback: app not available, e.g. during setup
	writer := output.New(output.Options{
		Format: fallbackFormat(cmd.PersistentFlags()),
		Writer: os.Stdout,
	})
	_ = writer.Err(err)

	os.Exit(apiErr.ExitCode())
}

// fallbackFormat determines the output format from raw flag values, for
// errors raised before the app exists.
func fallbackFormat(pf *pflag.FlagSet) output.Format {
	agent, _ := pf.GetBool("agent")
	quiet, _ := pf.GetBool("quiet")
	idsOnly, _ := pf.GetBool("ids-only")
	count, _ := pf.GetBool("count")
	styled, _ := pf.GetBool("styled")
	md, _ := pf.GetBool("md")
	jsonFlag, _ := pf.GetBool("json")

	switch {
	case agent, quiet:
		return output.FormatQuiet
	case idsOnly:
		return output.FormatIDs
	case count:
		return output.FormatCount
	case styled:
		return output.FormatStyled
	case md:
		return output.FormatMarkdown
	case jsonFlag:
		return output.FormatJSON
	default:
		return output.FormatAuto
	}
}

// transformCobraError rewrites Cobra's default error messages into usage
// errors so they pick up the usage exit code and envelope.
func transformCobraError(err error) error {
	msg := err.Error()

	if strings.HasPrefix(msg, "flag needs an argument: ") {
		flag := strings.TrimPrefix(msg, "flag needs an argument: ")
		return output.ErrUsage(flag + " requires a value")
	}

	if strings.HasPrefix(msg, "unknown flag: ") {
		flag := strings.TrimPrefix(msg, "unknown flag: ")
		return output.ErrUsage("Unknown option: " + flag)
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "Run: adsctl --help")
	}

	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}

	if strings.Contains(msg, "arg(s), received") {
		return output.ErrUsage(msg)
	}

	return err
}
