package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsctl/adsctl/internal/output"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "adsctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	// Global flags are registered
	for _, name := range []string{
		"json", "quiet", "md", "markdown", "styled", "ids-only", "count",
		"agent", "format", "customer-id", "login-customer-id",
		"developer-token", "credential-file", "verbose", "stats",
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		name     string
		in       error
		wantCode string
	}{
		{"missing flag value", errors.New("flag needs an argument: --customer-id"), output.CodeUsage},
		{"unknown flag", errors.New("unknown flag: --bogus"), output.CodeUsage},
		{"unknown command", errors.New(`unknown command "frobnicate" for "adsctl"`), output.CodeUsage},
		{"invalid argument", errors.New(`invalid argument "x" for "--max-pages" flag`), output.CodeUsage},
		{"too many args", errors.New("accepts at most 1 arg(s), received 2"), output.CodeUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformCobraError(tt.in)
			var apiErr *output.Error
			require.True(t, errors.As(got, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestTransformCobraErrorPassthrough(t *testing.T) {
	in := errors.New("some unrelated failure")
	assert.Equal(t, in, transformCobraError(in))
}

func TestFallbackFormat(t *testing.T) {
	tests := []struct {
		flag string
		want output.Format
	}{
		{"", output.FormatAuto},
		{"json", output.FormatJSON},
		{"quiet", output.FormatQuiet},
		{"agent", output.FormatQuiet},
		{"ids-only", output.FormatIDs},
		{"count", output.FormatCount},
		{"styled", output.FormatStyled},
		{"md", output.FormatMarkdown},
	}

	for _, tt := range tests {
		name := tt.flag
		if name == "" {
			name = "default"
		}
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCmd()
			if tt.flag != "" {
				require.NoError(t, cmd.PersistentFlags().Set(tt.flag, "true"))
			}
			assert.Equal(t, tt.want, fallbackFormat(cmd.PersistentFlags()))
		})
	}
}
