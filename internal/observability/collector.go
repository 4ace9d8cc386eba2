// Package observability provides request metrics and tracing for CLI sessions.
package observability

import (
	"fmt"
	"sync"
	"time"
)

// RequestMetrics holds timing and status information for a single HTTP request.
type RequestMetrics struct {
	Method     string
	URL        string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Retryable  bool
	Error      error
}

// RetryMetrics records a retry event.
type RetryMetrics struct {
	Method  string
	URL     string
	Attempt int
	Error   error
}

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalRequests  int
	FailedRequests int
	TotalRetries   int
	TotalLatency   time.Duration
}

// ToMap converts the metrics to a generic map for embedding in response meta.
func (m SessionMetrics) ToMap() map[string]any {
	return map[string]any{
		"requests":   m.TotalRequests,
		"failed":     m.FailedRequests,
		"retries":    m.TotalRetries,
		"latency_ms": m.TotalLatency.Milliseconds(),
	}
}

// SessionMetricsFromMap reconstructs metrics from a generic map. Values may
// arrive as float64 after a JSON round-trip.
func SessionMetricsFromMap(stats map[string]any) SessionMetrics {
	return SessionMetrics{
		TotalRequests:  intValue(stats["requests"]),
		FailedRequests: intValue(stats["failed"]),
		TotalRetries:   intValue(stats["retries"]),
		TotalLatency:   time.Duration(intValue(stats["latency_ms"])) * time.Millisecond,
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// FormatParts returns human-readable fragments for a compact stats line.
// Empty when nothing was recorded.
func (m SessionMetrics) FormatParts() []string {
	if m.TotalRequests == 0 {
		return nil
	}
	parts := []string{
		fmt.Sprintf("%d request%s", m.TotalRequests, plural(m.TotalRequests)),
	}
	if m.FailedRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", m.FailedRequests))
	}
	if m.TotalRetries > 0 {
		parts = append(parts, fmt.Sprintf("%d retr%s", m.TotalRetries, pluralY(m.TotalRetries)))
	}
	parts = append(parts, fmt.Sprintf("%dms", m.TotalLatency.Milliseconds()))
	return parts
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// SessionCollector accumulates metrics across a CLI session. Safe for
// concurrent use; counters only, no unbounded slices.
type SessionCollector struct {
	mu sync.Mutex

	startTime      time.Time
	totalRequests  int
	failedRequests int
	totalRetries   int
	totalLatency   time.Duration
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{startTime: time.Now()}
}

// RecordRequest records metrics for an HTTP request.
func (c *SessionCollector) RecordRequest(m RequestMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += m.Duration
	if m.Error != nil || m.StatusCode >= 400 {
		c.failedRequests++
	}
}

// RecordRetry records a retry event.
func (c *SessionCollector) RecordRetry(_ RetryMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionMetrics{
		StartTime:      c.startTime,
		EndTime:        time.Now(),
		TotalRequests:  c.totalRequests,
		FailedRequests: c.failedRequests,
		TotalRetries:   c.totalRetries,
		TotalLatency:   c.totalLatency,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.totalRequests = 0
	c.failedRequests = 0
	c.totalRetries = 0
	c.totalLatency = 0
}
