// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adsctl/adsctl/internal/ads"
	"github.com/adsctl/adsctl/internal/auth"
	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/observability"
	"github.com/adsctl/adsctl/internal/output"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Auth   *auth.Manager
	Tokens ads.TokenProvider
	Ads    *ads.Client
	Output *output.Writer

	// Observability
	Collector *observability.SessionCollector

	// Flags holds the global flag values
	Flags GlobalFlags

	// NoBrowser suppresses automatic browser opening during login.
	NoBrowser bool
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	Quiet   bool
	MD      bool // Literal Markdown syntax output
	Styled  bool // Force ANSI styled output (even when piped)
	IDsOnly bool
	Count   bool
	Agent   bool

	// Context flags
	CustomerID      string
	LoginCustomerID string
	DeveloperToken  string
	CredentialFile  string

	// Behavior flags
	Verbose int // 0=off, 1=operations, 2=operations+requests (stacks with -v -v or -vv)
	Stats   bool
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) *App {
	app := &App{
		Config:    cfg,
		Collector: observability.NewSessionCollector(),
	}

	// Credential store: keyring when configured and reachable, file otherwise.
	var store auth.Store = auth.NewFileStore(cfg.CredentialFile)
	if cfg.CredentialBackend == "keyring" && auth.KeyringAvailable() {
		store = auth.NewKeyringStore()
	}

	exchange := auth.NewHTTPExchange(auth.HTTPExchangeOptions{
		BaseURL:     cfg.OAuthBaseURL,
		WaitTimeout: time.Duration(cfg.AuthWaitSeconds) * time.Second,
	})

	app.Auth = auth.NewManager(store, exchange, auth.Options{
		Skew:      time.Duration(cfg.SkewSeconds) * time.Second,
		Endpoints: auth.EndpointsFor(cfg.OAuthBaseURL),
		OnAuthURL: app.announceAuthURL,
	})

	// ADSCTL_ACCESS_TOKEN bypasses the managed lifecycle entirely.
	app.Tokens = ads.TokenProvider(app.Auth)
	if envToken := os.Getenv("ADSCTL_ACCESS_TOKEN"); envToken != "" {
		app.Tokens = ads.StaticTokens(envToken)
	}

	app.Ads = ads.NewClient(cfg, app.Tokens)
	app.Ads.SetCollector(app.Collector)

	app.Output = output.New(output.Options{
		Format: output.ParseFormat(cfg.Format),
		Writer: os.Stdout,
	})

	return app
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() {
	// Apply output format from flags (order matters: specific modes first)
	if a.Flags.Agent || a.Flags.Quiet {
		// Agent mode = quiet JSON (data only, no envelope)
		a.setFormat(output.FormatQuiet)
	} else if a.Flags.IDsOnly {
		a.setFormat(output.FormatIDs)
	} else if a.Flags.Count {
		a.setFormat(output.FormatCount)
	} else if a.Flags.JSON {
		a.setFormat(output.FormatJSON)
	} else if a.Flags.Styled {
		a.setFormat(output.FormatStyled)
	} else if a.Flags.MD {
		a.setFormat(output.FormatMarkdown)
	}

	// Determine verbosity level from flags and ADSCTL_DEBUG env var
	verboseLevel := a.Flags.Verbose
	if a.Config.Verbose != nil && *a.Config.Verbose > verboseLevel {
		verboseLevel = *a.Config.Verbose
	}
	if debugEnv := os.Getenv("ADSCTL_DEBUG"); debugEnv != "" {
		// ADSCTL_DEBUG can be "1", "2", or "true" (treated as 2 for full debug)
		if level, err := strconv.Atoi(debugEnv); err == nil {
			if level > verboseLevel {
				verboseLevel = level
			}
		} else if debugEnv == "true" {
			verboseLevel = 2
		}
	}

	if verboseLevel > 0 {
		a.Ads.SetTrace(observability.NewTraceWriter(), verboseLevel)
		a.Ads.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if !a.Flags.Stats && a.Config.Stats != nil {
		a.Flags.Stats = *a.Config.Stats
	}
}

func (a *App) setFormat(f output.Format) {
	a.Output = output.New(output.Options{
		Format: f,
		Writer: os.Stdout,
	})
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		stats := a.Collector.Summary()
		opts = append(opts, output.WithMeta("stats", stats.ToMap()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	// Stats go to stderr, but not in machine-consumable modes
	// (agent, quiet, ids-only, count are meant for programmatic consumption)
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		a.printStatsToStderr()
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Agent || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count {
		return true
	}
	if a.Config != nil && a.Config.Format == "quiet" {
		return true
	}
	return false
}

// printStatsToStderr outputs a compact stats line to stderr.
func (a *App) printStatsToStderr() {
	stats := a.Collector.Summary()
	parts := stats.FormatParts()
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nStats: %s\n", strings.Join(parts, " | "))
}

// announceAuthURL is wired into the auth manager as the consent-URL callback.
// It prints the URL and opens a browser unless suppressed.
func (a *App) announceAuthURL(url string) {
	if a.NoBrowser {
		fmt.Fprintf(os.Stderr, "\nOpen this URL in your browser:\n%s\n\nWaiting for authorization...\n", url)
		return
	}
	if err := openBrowser(url); err != nil {
		fmt.Fprintf(os.Stderr, "\nCouldn't open browser automatically.\nOpen this URL in your browser:\n%s\n\nWaiting for authorization...\n", url)
		return
	}
	fmt.Fprintln(os.Stderr, "\nOpening browser for authorization...")
	fmt.Fprintf(os.Stderr, "If the browser doesn't open, visit: %s\n\nWaiting for authorization...\n", url)
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
