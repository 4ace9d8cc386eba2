// Package ads provides an HTTP client for the Google Ads REST API.
package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adsctl/adsctl/internal/config"
	"github.com/adsctl/adsctl/internal/observability"
	"github.com/adsctl/adsctl/internal/output"
	"github.com/adsctl/adsctl/internal/version"
)

const (
	maxRetries = 5
	baseDelay  = 1 * time.Second
	maxJitter  = 100 * time.Millisecond
)

// TokenProvider supplies access tokens for API requests. Implemented by
// auth.Manager; StaticTokens covers the env-passthrough case.
type TokenProvider interface {
	EnsureToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// StaticTokens is a TokenProvider for a fixed token (e.g. ADSCTL_ACCESS_TOKEN).
// It cannot refresh, so a rejected token surfaces as an auth error.
type StaticTokens string

func (s StaticTokens) EnsureToken(context.Context) (string, error) { return string(s), nil }

func (s StaticTokens) ForceRefresh(context.Context) (string, error) {
	return "", output.ErrAuth("static access token was rejected and cannot be refreshed")
}

// Client is an HTTP client for the Google Ads REST API.
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	cfg        *config.Config
	collector  *observability.SessionCollector
	trace      *observability.TraceWriter
	traceLevel int
	logger     *slog.Logger
}

// Response wraps an API response.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	return json.Unmarshal(r.Data, v)
}

// NewClient creates a new API client.
func NewClient(cfg *config.Config, tokens TokenProvider) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tokens: tokens,
		cfg:    cfg,
	}
}

// SetCollector attaches a session metrics collector.
func (c *Client) SetCollector(col *observability.SessionCollector) {
	c.collector = col
}

// SetTrace attaches a trace writer; level 0 disables request tracing.
func (c *Client) SetTrace(tw *observability.TraceWriter, level int) {
	c.trace = tw
	c.traceLevel = level
}

// SetHTTPClient overrides the underlying HTTP client, for tests.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.httpClient = h
}

// SetLogger attaches a debug logger for request/retry diagnostics.
func (c *Client) SetLogger(l *slog.Logger) {
	c.logger = l
}

// Get performs a GET request against an API-version-relative path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.doRequest(ctx, http.MethodPost, path, body)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.buildURL(path)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := c.singleRequest(ctx, method, url, body, attempt)
		if err == nil {
			return resp, nil
		}

		apiErr, ok := err.(*output.Error)
		if !ok || !apiErr.Retryable {
			return nil, err
		}
		lastErr = err

		delay := backoffDelay(attempt)
		if c.logger != nil {
			c.logger.Debug("retrying request",
				"method", method, "url", url, "attempt", attempt,
				"delay", delay, "error", err)
		}
		if c.trace != nil && c.traceLevel >= 1 {
			c.trace.WriteRetry(observability.RetryMetrics{
				Method:  method,
				URL:     url,
				Attempt: attempt,
				Error:   err,
			})
		}
		if c.collector != nil {
			c.collector.RecordRetry(observability.RetryMetrics{Method: method, URL: url, Attempt: attempt, Error: err})
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) singleRequest(ctx context.Context, method, url string, body any, attempt int) (*Response, error) {
	token, err := c.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, output.FromAuth(err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = strings.NewReader(string(bodyBytes))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("developer-token", c.cfg.DeveloperToken)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", NormalizeCustomerID(c.cfg.LoginCustomerID))
	}

	if c.trace != nil && c.traceLevel >= 1 {
		c.trace.WriteRequestStart(observability.RequestMetrics{Method: method, URL: url, Attempt: attempt})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if c.collector != nil {
		m := observability.RequestMetrics{Method: method, URL: url, Attempt: attempt, Duration: duration, Error: err}
		if resp != nil {
			m.StatusCode = resp.StatusCode
		}
		c.collector.RecordRequest(m)
	}
	if err != nil {
		if c.trace != nil && c.traceLevel >= 1 {
			c.trace.WriteRequestEnd(observability.RequestMetrics{Error: err})
		}
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	if c.trace != nil && c.traceLevel >= 1 {
		c.trace.WriteRequestEnd(observability.RequestMetrics{StatusCode: resp.StatusCode, Duration: duration})
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return &Response{
			Data:       respBody,
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
		}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, output.ErrRateLimit(retryAfter)

	case resp.StatusCode == http.StatusUnauthorized:
		// One forced refresh on the first 401; a second 401 means the
		// credentials themselves are bad.
		if attempt == 1 {
			if _, err := c.tokens.ForceRefresh(ctx); err == nil {
				return nil, &output.Error{
					Code:      output.CodeAuth,
					Message:   "Token refreshed",
					Retryable: true,
				}
			}
		}
		return nil, output.ErrAuth("Authentication failed")

	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &output.Error{
			Code:       output.CodeAPI,
			Message:    googleErrorMessage(resp.StatusCode, respBody),
			HTTPStatus: resp.StatusCode,
			Retryable:  true,
		}

	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, output.ErrAPI(resp.StatusCode, googleErrorMessage(resp.StatusCode, respBody))
	}
}

// buildURL joins the API base, version, and path.
func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return config.NormalizeBaseURL(c.cfg.AdsBaseURL) + "/" + c.cfg.APIVersion + path
}

func backoffDelay(attempt int) time.Duration {
	// Exponential backoff: base * 2^(attempt-1)
	delay := baseDelay * time.Duration(1<<(attempt-1))

	// Add jitter (0-100ms)
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))

	return delay + jitter
}

// googleErrorMessage extracts the message from a Google API error body.
// Shape: {"error": {"code": 403, "message": "...", "status": "PERMISSION_DENIED"}}
func googleErrorMessage(status int, body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		if parsed.Error.Status != "" {
			return fmt.Sprintf("%s: %s", parsed.Error.Status, parsed.Error.Message)
		}
		return parsed.Error.Message
	}
	return fmt.Sprintf("Request failed (HTTP %d)", status)
}

// parseRetryAfter parses the Retry-After header value.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return seconds
	}
	return 0
}

// RequireDeveloperToken returns an error if no developer token is configured.
func (c *Client) RequireDeveloperToken() error {
	if c.cfg.DeveloperToken == "" {
		return output.ErrUsageHint(
			"No developer token configured",
			"Set GOOGLE_ADS_DEVELOPER_TOKEN or run: adsctl config set developer_token <token>",
		)
	}
	return nil
}

// RequireCustomer returns an error if no customer ID is configured or given.
func (c *Client) RequireCustomer(customerID string) (string, error) {
	if customerID == "" {
		customerID = c.cfg.CustomerID
	}
	if customerID == "" {
		return "", output.ErrUsageHint(
			"No customer ID specified",
			"Use --customer-id or set customer_id in config",
		)
	}
	return NormalizeCustomerID(customerID), nil
}
