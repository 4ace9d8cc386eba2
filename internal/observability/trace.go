package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// sensitiveParams are query parameter names scrubbed from trace output. The
// list is intentionally specific to avoid hiding useful debug info.
var sensitiveParams = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"code":          true, // authorization correlation codes
	"client_secret": true,
	"secret":        true,
}

// TraceWriter outputs human-readable trace lines with timestamps relative to
// session start. Intended for stderr so it never mixes with JSON output.
type TraceWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
}

// NewTraceWriter creates a TraceWriter that writes to stderr.
func NewTraceWriter() *TraceWriter {
	return NewTraceWriterTo(os.Stderr)
}

// NewTraceWriterTo creates a TraceWriter that writes to the given writer.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{writer: w, startTime: time.Now()}
}

// WriteRequestStart writes a request start line.
// Format: [0.234s]   -> GET /v21/customers:listAccessibleCustomers
func (t *TraceWriter) WriteRequestStart(m RequestMetrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[%.3fs]   -> %s %s\n", t.elapsed(), m.Method, scrubURL(m.URL))
}

// WriteRequestEnd writes a request completion line.
// Format: [0.456s]   <- 200 (222ms)
func (t *TraceWriter) WriteRequestEnd(m RequestMetrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m.Error != nil {
		fmt.Fprintf(t.writer, "[%.3fs]   <- error: %v\n", t.elapsed(), m.Error)
		return
	}
	fmt.Fprintf(t.writer, "[%.3fs]   <- %d (%dms)\n", t.elapsed(), m.StatusCode, m.Duration.Milliseconds())
}

// WriteRetry writes a retry line.
// Format: [0.456s]   retry 2: GET /... (connection refused)
func (t *TraceWriter) WriteRetry(m RetryMetrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[%.3fs]   retry %d: %s %s (%v)\n", t.elapsed(), m.Attempt, m.Method, scrubURL(m.URL), m.Error)
}

func (t *TraceWriter) elapsed() float64 {
	return time.Since(t.startTime).Seconds()
}

// scrubURL redacts sensitive query parameter values.
func scrubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for key := range q {
		if sensitiveParams[strings.ToLower(key)] {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
