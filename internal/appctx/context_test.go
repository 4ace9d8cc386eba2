package appctx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/output"
)

func TestNewApp(t *testing.T) {
	cfg := config.Default()
	app := NewApp(cfg)

	if app == nil {
		t.Fatal("NewApp returned nil")
	}
	if app.Config != cfg {
		t.Error("Config not set correctly")
	}
	if app.Auth == nil {
		t.Error("Auth manager not initialized")
	}
	if app.Ads == nil {
		t.Error("Ads client not initialized")
	}
	if app.Tokens == nil {
		t.Error("Token provider not initialized")
	}
	if app.Output == nil {
		t.Error("Output writer not initialized")
	}
	if app.Collector == nil {
		t.Error("Collector not initialized")
	}
}

func TestWithAppAndFromContext(t *testing.T) {
	app := NewApp(config.Default())

	ctx := WithApp(context.Background(), app)
	if FromContext(ctx) != app {
		t.Error("FromContext did not retrieve the same app")
	}
}

func TestFromContextEmpty(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil from empty context")
	}
}

func TestStaticTokenEnvOverride(t *testing.T) {
	t.Setenv("ADSCTL_ACCESS_TOKEN", "env-token")
	app := NewApp(config.Default())

	tok, err := app.Tokens.EnsureToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if tok != "env-token" {
		t.Errorf("token = %q, want env-token", tok)
	}
}

func TestApplyFlagsPriority(t *testing.T) {
	tests := []struct {
		name    string
		setFlag func(*App)
	}{
		{"agent", func(a *App) { a.Flags.Agent = true }},
		{"idsOnly", func(a *App) { a.Flags.IDsOnly = true }},
		{"count", func(a *App) { a.Flags.Count = true }},
		{"quiet", func(a *App) { a.Flags.Quiet = true }},
		{"json", func(a *App) { a.Flags.JSON = true }},
		{"md", func(a *App) { a.Flags.MD = true }},
		{"styled", func(a *App) { a.Flags.Styled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(config.Default())
			tt.setFlag(app)
			app.ApplyFlags()
			if app.Output == nil {
				t.Error("Output should be set after ApplyFlags")
			}
		})
	}
}

func TestAppOKWithStats(t *testing.T) {
	tests := []struct {
		name        string
		stats       bool
		expectStats bool
	}{
		{"stats off", false, false},
		{"stats on", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(config.Default())

			var buf bytes.Buffer
			app.Output = output.New(output.Options{
				Format: output.FormatJSON,
				Writer: &buf,
			})
			app.Flags.Stats = tt.stats

			if err := app.OK(map[string]string{"test": "data"}); err != nil {
				t.Fatalf("OK() failed: %v", err)
			}

			var resp map[string]any
			if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse JSON output: %v", err)
			}

			meta, hasMeta := resp["meta"].(map[string]any)
			hasStats := hasMeta && meta["stats"] != nil
			if hasStats != tt.expectStats {
				t.Errorf("stats presence = %v, want %v", hasStats, tt.expectStats)
			}
		})
	}
}

func TestAppOKWithNilCollector(t *testing.T) {
	app := NewApp(config.Default())
	app.Collector = nil
	app.Flags.Stats = true

	var buf bytes.Buffer
	app.Output = output.New(output.Options{
		Format: output.FormatJSON,
		Writer: &buf,
	})

	if err := app.OK(map[string]string{"test": "data"}); err != nil {
		t.Errorf("OK with nil collector failed: %v", err)
	}
}

func TestIsMachineOutput(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*App)
		expected bool
	}{
		{"default", func(a *App) {}, false},
		{"agent flag", func(a *App) { a.Flags.Agent = true }, true},
		{"quiet flag", func(a *App) { a.Flags.Quiet = true }, true},
		{"ids-only flag", func(a *App) { a.Flags.IDsOnly = true }, true},
		{"count flag", func(a *App) { a.Flags.Count = true }, true},
		{"json flag", func(a *App) { a.Flags.JSON = true }, false},
		{"config quiet", func(a *App) { a.Config.Format = "quiet" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(config.Default())
			tt.setup(app)

			if got := app.isMachineOutput(); got != tt.expected {
				t.Errorf("isMachineOutput() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppErr(t *testing.T) {
	app := NewApp(config.Default())

	var buf bytes.Buffer
	app.Output = output.New(output.Options{
		Format: output.FormatJSON,
		Writer: &buf,
	})

	if err := app.Err(output.ErrAPI(500, "test error")); err != nil {
		t.Fatalf("Err() failed: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Error("ok should be false in error response")
	}
}
