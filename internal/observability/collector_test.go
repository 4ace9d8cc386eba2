package observability

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCollectorRecordRequest(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequest(RequestMetrics{
		Method:     "GET",
		URL:        "/customers:listAccessibleCustomers",
		StatusCode: 200,
		Duration:   50 * time.Millisecond,
	})
	c.RecordRequest(RequestMetrics{
		Method:     "POST",
		URL:        "/googleAds:search",
		StatusCode: 500,
		Duration:   10 * time.Millisecond,
	})

	summary := c.Summary()
	assert.Equal(t, 2, summary.TotalRequests)
	assert.Equal(t, 1, summary.FailedRequests)
	assert.Equal(t, 60*time.Millisecond, summary.TotalLatency)
}

func TestSessionCollectorRecordRetry(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRetry(RetryMetrics{Method: "GET", URL: "/x", Attempt: 2, Error: errors.New("timeout")})
	c.RecordRetry(RetryMetrics{Method: "GET", URL: "/x", Attempt: 3, Error: errors.New("timeout")})

	assert.Equal(t, 2, c.Summary().TotalRetries)
}

func TestSessionCollectorReset(t *testing.T) {
	c := NewSessionCollector()
	c.RecordRequest(RequestMetrics{StatusCode: 200, Duration: time.Millisecond})
	c.Reset()

	summary := c.Summary()
	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.TotalLatency)
}

func TestSessionCollectorConcurrent(t *testing.T) {
	c := NewSessionCollector()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.RecordRequest(RequestMetrics{StatusCode: 200, Duration: time.Microsecond})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, c.Summary().TotalRequests)
}

func TestSessionMetricsMapRoundTrip(t *testing.T) {
	m := SessionMetrics{
		TotalRequests:  3,
		FailedRequests: 1,
		TotalRetries:   2,
		TotalLatency:   420 * time.Millisecond,
	}

	got := SessionMetricsFromMap(m.ToMap())
	assert.Equal(t, m.TotalRequests, got.TotalRequests)
	assert.Equal(t, m.FailedRequests, got.FailedRequests)
	assert.Equal(t, m.TotalRetries, got.TotalRetries)
	assert.Equal(t, m.TotalLatency, got.TotalLatency)
}

func TestSessionMetricsFromMapHandlesFloats(t *testing.T) {
	// Values arrive as float64 after a JSON round-trip.
	got := SessionMetricsFromMap(map[string]any{
		"requests":   float64(4),
		"failed":     float64(0),
		"retries":    float64(1),
		"latency_ms": float64(98),
	})
	assert.Equal(t, 4, got.TotalRequests)
	assert.Equal(t, 1, got.TotalRetries)
	assert.Equal(t, 98*time.Millisecond, got.TotalLatency)
}

func TestFormatParts(t *testing.T) {
	assert.Nil(t, SessionMetrics{}.FormatParts(), "no requests, no stats line")

	parts := SessionMetrics{
		TotalRequests: 3,
		TotalRetries:  1,
		TotalLatency:  420 * time.Millisecond,
	}.FormatParts()
	require.Len(t, parts, 3)
	assert.Equal(t, "3 requests", parts[0])
	assert.Equal(t, "1 retry", parts[1])
	assert.Equal(t, "420ms", parts[2])
}

func TestScrubURL(t *testing.T) {
	scrubbed := scrubURL("https://oauth.example.com/get-token?code=secret-123&foo=bar")
	assert.NotContains(t, scrubbed, "secret-123")
	assert.Contains(t, scrubbed, "REDACTED")
	assert.Contains(t, scrubbed, "foo=bar")

	// Clean URLs pass through untouched.
	clean := "https://api.example.com/v21/customers"
	assert.Equal(t, clean, scrubURL(clean))
}

func TestTraceWriterOutput(t *testing.T) {
	var buf strings.Builder
	tw := NewTraceWriterTo(&buf)

	tw.WriteRequestStart(RequestMetrics{Method: "GET", URL: "/v21/customers"})
	tw.WriteRequestEnd(RequestMetrics{StatusCode: 200, Duration: 42 * time.Millisecond})
	tw.WriteRetry(RetryMetrics{Method: "GET", URL: "/v21/customers", Attempt: 2, Error: errors.New("timeout")})

	out := buf.String()
	assert.Contains(t, out, "-> GET /v21/customers")
	assert.Contains(t, out, "<- 200 (42ms)")
	assert.Contains(t, out, "retry 2")
}
