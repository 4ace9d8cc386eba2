package output

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsctl/adsctl/internal/auth"
)

func newBufWriter(format Format) (*Writer, *strings.Builder) {
	var buf strings.Builder
	return New(Options{Format: format, Writer: &buf}), &buf
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeUsage, ExitUsage},
		{CodeNotFound, ExitNotFound},
		{CodeAuth, ExitAuth},
		{CodeInvalidGrant, ExitAuth},
		{CodeCorrupted, ExitAuth},
		{CodeFlowTimeout, ExitFlow},
		{CodeFlowFailed, ExitFlow},
		{CodeFlowUnavailable, ExitFlow},
		{CodeRateLimit, ExitRateLimit},
		{CodeNetwork, ExitNetwork},
		{CodeAPI, ExitAPI},
		{"something_else", ExitAPI},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.code))
		})
	}
}

func TestOKWritesJSONEnvelope(t *testing.T) {
	w, buf := newBufWriter(FormatJSON)

	err := w.OK(map[string]any{"customer_id": "1234567890"}, WithSummary("1 account"))
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "1 account", resp["summary"])

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1234567890", data["customer_id"])
}

func TestErrWritesErrorEnvelope(t *testing.T) {
	w, buf := newBufWriter(FormatJSON)

	require.NoError(t, w.Err(ErrAuth("not logged in")))

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &resp))
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, CodeAuth, resp["code"])
	assert.Equal(t, "not logged in", resp["error"])
	assert.Contains(t, resp["hint"], "adsctl auth login")
}

func TestQuietFormatEmitsBareData(t *testing.T) {
	w, buf := newBufWriter(FormatQuiet)

	require.NoError(t, w.OK(map[string]any{"access_token": "tok"}, WithSummary("ignored")))

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &data))
	assert.Equal(t, "tok", data["access_token"])
	assert.NotContains(t, buf.String(), "ignored")
	assert.NotContains(t, buf.String(), `"ok"`)
}

func TestIDsFormat(t *testing.T) {
	w, buf := newBufWriter(FormatIDs)

	require.NoError(t, w.OK([]map[string]any{
		{"customer_id": "1111111111", "descriptive_name": "Acme"},
		{"customer_id": "2222222222", "descriptive_name": "Globex"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1111111111", lines[0])
	assert.Equal(t, "2222222222", lines[1])
}

func TestCountFormat(t *testing.T) {
	w, buf := newBufWriter(FormatCount)

	require.NoError(t, w.OK([]map[string]any{{"id": 1}, {"id": 2}, {"id": 3}}))
	assert.Equal(t, "3", strings.TrimSpace(buf.String()))
}

func TestMarkdownTable(t *testing.T) {
	w, buf := newBufWriter(FormatMarkdown)

	require.NoError(t, w.OK([]map[string]any{
		{"customer_id": "1111111111", "descriptive_name": "Acme", "status": "ENABLED"},
	}, WithSummary("Accounts")))

	out := buf.String()
	assert.Contains(t, out, "## Accounts")
	assert.Contains(t, out, "| Customer Id |")
	assert.Contains(t, out, "| 1111111111 |")
	assert.Contains(t, out, "| --- |")
}

func TestMarkdownError(t *testing.T) {
	w, buf := newBufWriter(FormatMarkdown)

	require.NoError(t, w.Err(ErrNetwork(errors.New("dial tcp: timeout"))))

	out := buf.String()
	assert.Contains(t, out, "**Error:** Network error")
	assert.Contains(t, out, "dial tcp: timeout")
}

func TestMarkdownBreadcrumbs(t *testing.T) {
	w, buf := newBufWriter(FormatMarkdown)

	require.NoError(t, w.OK(nil, WithBreadcrumbs(Breadcrumb{
		Action:      "list",
		Cmd:         "adsctl accounts list",
		Description: "List accessible accounts",
	})))

	out := buf.String()
	assert.Contains(t, out, "### Next")
	assert.Contains(t, out, "`adsctl accounts list`")
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatMarkdown, ParseFormat("markdown"))
	assert.Equal(t, FormatMarkdown, ParseFormat("md"))
	assert.Equal(t, FormatStyled, ParseFormat("styled"))
	assert.Equal(t, FormatQuiet, ParseFormat("quiet"))
	assert.Equal(t, FormatIDs, ParseFormat("ids"))
	assert.Equal(t, FormatCount, ParseFormat("count"))
	assert.Equal(t, FormatAuto, ParseFormat(""))
	assert.Equal(t, FormatAuto, ParseFormat("bogus"))
}

func TestFromAuthMapsReasons(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"invalid grant", &auth.Error{Reason: auth.ReasonInvalidGrant, Message: "rejected"}, CodeInvalidGrant, ExitAuth},
		{"corrupted", &auth.Error{Reason: auth.ReasonCorrupted, Message: "bad file"}, CodeCorrupted, ExitAuth},
		{"transport", &auth.Error{Reason: auth.ReasonTransport, Message: "down"}, CodeNetwork, ExitNetwork},
		{"flow timeout", &auth.Error{Reason: auth.ReasonFlowTimeout, Message: "slow"}, CodeFlowTimeout, ExitFlow},
		{"ensure failed", &auth.Error{Reason: auth.ReasonEnsureFailed, Message: "no token"}, CodeAuth, ExitAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromAuth(tt.err)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantExit, e.ExitCode())
		})
	}
}

func TestAsErrorWrapsUnknown(t *testing.T) {
	e := AsError(errors.New("boom"))
	assert.Equal(t, CodeAPI, e.Code)
	assert.Equal(t, "boom", e.Message)

	// Structured errors pass through unchanged.
	orig := ErrUsage("bad flag")
	assert.Same(t, orig, AsError(orig))

	// Auth errors route through FromAuth even when wrapped.
	wrapped := AsError(&auth.Error{Reason: auth.ReasonInvalidGrant, Message: "dead"})
	assert.Equal(t, CodeInvalidGrant, wrapped.Code)
}

func TestNormalizeDataRawMessage(t *testing.T) {
	raw := json.RawMessage(`[{"id": 1}, {"id": 2}]`)
	data := NormalizeData(raw)

	maps, ok := data.([]map[string]any)
	require.True(t, ok)
	assert.Len(t, maps, 2)
}

func TestStyledRendererPlainWhenNotTTY(t *testing.T) {
	var buf strings.Builder
	r := NewRenderer(&buf, false)

	require.NoError(t, r.RenderError(&buf, &ErrorResponse{
		Error: "something broke",
		Hint:  "try again",
	}))

	out := buf.String()
	assert.Contains(t, out, "Error: something broke")
	assert.Contains(t, out, "Hint: try again")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes for non-TTY writers")
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "Customer Id", formatHeader("customer_id"))
	assert.Equal(t, "Descriptive Name", formatHeader("descriptive_name"))
	assert.Equal(t, "Created", formatHeader("created_at"))
}

func TestFormatCellTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := formatCell(long)
	assert.Len(t, got, 40)
	assert.True(t, strings.HasSuffix(got, "..."))
}
