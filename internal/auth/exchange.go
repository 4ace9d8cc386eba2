package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints are the three fixed OAuth service paths under a common base URL.
type Endpoints struct {
	Start        string `json:"start"`
	GetToken     string `json:"get_token"`
	RefreshToken string `json:"refresh_token"`
}

// EndpointsFor derives the endpoint set from a base URL. Static metadata, no
// network call.
func EndpointsFor(baseURL string) Endpoints {
	base := strings.TrimSuffix(baseURL, "/")
	return Endpoints{
		Start:        base + "/start",
		GetToken:     base + "/get-token",
		RefreshToken: base + "/refresh-token",
	}
}

// AuthorizationHandle correlates a started flow: a human-followable consent
// URL plus the code used to poll for the result.
type AuthorizationHandle struct {
	URL  string `json:"auth_url"`
	Code string `json:"code"`
}

// Exchange performs the three remote OAuth operations. Implementations are
// injected into the Manager so tests can run without a network.
type Exchange interface {
	// StartAuthorization initiates a hosted flow and returns the consent URL
	// plus a correlation handle. Fails with ErrFlowUnavailable on
	// network/remote errors.
	StartAuthorization(ctx context.Context) (*AuthorizationHandle, error)

	// CompleteAuthorization blocks, polling until the flow finishes, then
	// returns the fresh record. Fails with ErrFlowTimeout after the bounded
	// wait or ErrFlowFailed on remote denial.
	CompleteAuthorization(ctx context.Context, h *AuthorizationHandle) (*Record, error)

	// Refresh exchanges a refresh token for a new access token. Fails with
	// ErrInvalidGrant when the remote rejects the token (recoverable via
	// re-authorization) or ErrTransport for network-level failures.
	Refresh(ctx context.Context, refreshToken string) (*Record, error)
}

// Default polling cadence and bound for the interactive consent wait.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultWaitTimeout  = 3 * time.Minute
)

// HTTPExchange talks to the hosted OAuth service.
type HTTPExchange struct {
	endpoints    Endpoints
	httpClient   *http.Client
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// HTTPExchangeOptions configures an HTTPExchange.
type HTTPExchangeOptions struct {
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	WaitTimeout  time.Duration
}

// NewHTTPExchange creates an exchange client for the given base URL.
func NewHTTPExchange(opts HTTPExchangeOptions) *HTTPExchange {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	wait := opts.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	return &HTTPExchange{
		endpoints:    EndpointsFor(opts.BaseURL),
		httpClient:   client,
		pollInterval: poll,
		waitTimeout:  wait,
	}
}

// Endpoints returns the resolved endpoint set.
func (e *HTTPExchange) Endpoints() Endpoints {
	return e.endpoints
}

// StartAuthorization begins the hosted flow.
func (e *HTTPExchange) StartAuthorization(ctx context.Context) (*AuthorizationHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoints.Start, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, flowUnavailableErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, flowUnavailableErr(fmt.Errorf("start returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var handle AuthorizationHandle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return nil, flowUnavailableErr(err)
	}
	if handle.URL == "" || handle.Code == "" {
		return nil, flowUnavailableErr(errors.New("start response missing auth_url or code"))
	}
	return &handle, nil
}

// CompleteAuthorization polls get-token until the flow finishes, the wait
// times out, or the caller cancels. Nothing is persisted here; the Manager
// writes only after a full success, so abandoning the wait cannot corrupt
// the store.
func (e *HTTPExchange) CompleteAuthorization(ctx context.Context, h *AuthorizationHandle) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, e.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		rec, done, err := e.pollOnce(ctx, h.Code)
		if err != nil {
			return nil, err
		}
		if done {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, flowTimeoutErr(e.waitTimeout.String())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollOnce asks the service whether the flow has finished. Transient
// transport errors are not fatal; the deadline bounds them.
func (e *HTTPExchange) pollOnce(ctx context.Context, code string) (*Record, bool, error) {
	u := e.endpoints.GetToken + "?code=" + url.QueryEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, false, flowTimeoutErr(e.waitTimeout.String())
		}
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, false, flowFailedErr("malformed token response")
		}
		if tr.Pending() {
			return nil, false, nil
		}
		rec, err := tr.record()
		if err != nil {
			return nil, false, flowFailedErr(err.Error())
		}
		return rec, true, nil
	case http.StatusAccepted:
		return nil, false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, false, flowFailedErr(remoteDetail(resp.StatusCode, body))
	}
}

// Refresh exchanges a refresh token for a new access token.
func (e *HTTPExchange) Refresh(ctx context.Context, refreshToken string) (*Record, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoints.RefreshToken, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, transportErr(fmt.Errorf("malformed refresh response: %w", err))
		}
		rec, err := tr.record()
		if err != nil {
			return nil, transportErr(err)
		}
		return rec, nil
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		// The remote understood us and rejected the grant: dead, which the
		// caller recovers from with a full re-authorization. Other 4xx
		// (429, 408) are transient and must not burn the interactive flow.
		body, _ := io.ReadAll(resp.Body)
		return nil, invalidGrantErr(remoteDetail(resp.StatusCode, body))
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, transportErr(fmt.Errorf("refresh returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
}

// tokenResponse is the wire shape shared by get-token and refresh-token. The
// service reports expiry as expires_at (absolute) or expires_in (seconds).
type tokenResponse struct {
	Status       string `json:"status,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

func (t *tokenResponse) Pending() bool {
	return t.AccessToken == "" && (t.Status == "pending" || t.Status == "")
}

func (t *tokenResponse) record() (*Record, error) {
	if t.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}
	expiresAt := t.ExpiresAt
	if expiresAt == 0 && t.ExpiresIn > 0 {
		expiresAt = time.Now().Unix() + t.ExpiresIn
	}
	if expiresAt == 0 {
		return nil, errors.New("token response missing expiry")
	}
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &Record{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    tokenType,
		Scope:        t.Scope,
	}, nil
}

func remoteDetail(status int, body []byte) string {
	var remote struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if json.Unmarshal(body, &remote) == nil {
		switch {
		case remote.ErrorDescription != "":
			return remote.ErrorDescription
		case remote.Error != "":
			return remote.Error
		case remote.Message != "":
			return remote.Message
		}
	}
	return fmt.Sprintf("remote returned %d", status)
}
