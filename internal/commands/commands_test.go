package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsctl/adsctl/internal/auth"
)

func TestAuthCmdSubcommands(t *testing.T) {
	cmd := NewAuthCmd()

	want := []string{"login", "logout", "status", "refresh", "token", "endpoints"}
	got := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		got[sub.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "auth %s should be registered", name)
	}
}

func TestKeywordsCmdSubcommands(t *testing.T) {
	cmd := NewKeywordsCmd()

	ideas, _, err := cmd.Find([]string{"ideas"})
	require.NoError(t, err)
	assert.Equal(t, "ideas", ideas.Name())

	for _, name := range []string{"page-url", "language", "geo", "network", "include-adult"} {
		assert.NotNil(t, ideas.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestGAQLCmdFlags(t *testing.T) {
	cmd := NewGAQLCmd()
	assert.NotNil(t, cmd.Flags().Lookup("page-size"))
	assert.NotNil(t, cmd.Flags().Lookup("max-pages"))
}

func TestQueryFromArgs(t *testing.T) {
	q, err := queryFromArgsOrStdin([]string{"SELECT customer.id FROM customer"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT customer.id FROM customer", q)
}

func TestStatusSummary(t *testing.T) {
	tests := []struct {
		name   string
		status auth.Status
		want   string
	}{
		{"valid", auth.Status{State: auth.StateValid}, "Authenticated"},
		{"absent", auth.Status{State: auth.StateAbsent}, "Not authenticated"},
		{"corrupted", auth.Status{State: auth.StateCorrupted}, "Stored credentials are unreadable"},
		{
			"expired with refresh token",
			auth.Status{State: auth.StateExpired, Record: &auth.Record{RefreshToken: "rt"}},
			"Token expired (will refresh on next use)",
		},
		{
			"expired without refresh token",
			auth.Status{State: auth.StateExpired, Record: &auth.Record{}},
			"Token expired (re-authentication required)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusSummary(tt.status))
		})
	}
}

func TestDoctorResultSummary(t *testing.T) {
	r := &DoctorResult{}
	r.add(Check{Name: "a", Status: "pass"})
	r.add(Check{Name: "b", Status: "pass"})
	assert.Equal(t, "All 2 checks passed", r.Summary())

	r.add(Check{Name: "c", Status: "skip"})
	assert.Equal(t, "All 2 checks passed, 1 skipped", r.Summary())

	r.add(Check{Name: "d", Status: "fail"})
	r.add(Check{Name: "e", Status: "warn"})
	assert.Equal(t, "2 passed, 1 failed, 1 warning, 1 skipped", r.Summary())
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "****", redactToken("abc"))
	assert.Equal(t, "abcd****", redactToken("abcdefghij"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "account", pluralize(1, "account", "accounts"))
	assert.Equal(t, "accounts", pluralize(0, "account", "accounts"))
	assert.Equal(t, "accounts", pluralize(5, "account", "accounts"))
}
