package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointsFor(t *testing.T) {
	eps := EndpointsFor("https://oauth.example.com/v1/")

	assert.Equal(t, "https://oauth.example.com/v1/start", eps.Start)
	assert.Equal(t, "https://oauth.example.com/v1/get-token", eps.GetToken)
	assert.Equal(t, "https://oauth.example.com/v1/refresh-token", eps.RefreshToken)
}

func newExchange(baseURL string) *HTTPExchange {
	return NewHTTPExchange(HTTPExchangeOptions{
		BaseURL:      baseURL,
		PollInterval: 10 * time.Millisecond,
		WaitTimeout:  500 * time.Millisecond,
	})
}

func TestStartAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/start", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"auth_url": "https://accounts.example.com/consent?id=xyz",
			"code":     "corr-1",
		})
	}))
	defer srv.Close()

	handle, err := newExchange(srv.URL).StartAuthorization(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/consent?id=xyz", handle.URL)
	assert.Equal(t, "corr-1", handle.Code)
}

func TestStartAuthorizationRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL).StartAuthorization(context.Background())
	assert.True(t, errors.Is(err, ErrFlowUnavailable), "got %v", err)
}

func TestStartAuthorizationNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newExchange(srv.URL).StartAuthorization(context.Background())
	assert.True(t, errors.Is(err, ErrFlowUnavailable), "got %v", err)
}

func TestCompleteAuthorizationPollsUntilReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get-token", r.URL.Path)
		require.Equal(t, "corr-1", r.URL.Query().Get("code"))

		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh",
			"refresh_token": "long-lived",
			"expires_in":    3600,
			"token_type":    "Bearer",
			"scope":         "adwords",
		})
	}))
	defer srv.Close()

	rec, err := newExchange(srv.URL).CompleteAuthorization(context.Background(), &AuthorizationHandle{URL: "u", Code: "corr-1"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", rec.AccessToken)
	assert.Equal(t, "long-lived", rec.RefreshToken)
	assert.Greater(t, rec.ExpiresAt, time.Now().Unix())
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestCompleteAuthorizationPendingStatusBody(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"expires_at":   time.Now().Unix() + 3600,
		})
	}))
	defer srv.Close()

	rec, err := newExchange(srv.URL).CompleteAuthorization(context.Background(), &AuthorizationHandle{URL: "u", Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.AccessToken)
}

func TestCompleteAuthorizationTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted) // never finishes
	}))
	defer srv.Close()

	ex := NewHTTPExchange(HTTPExchangeOptions{
		BaseURL:      srv.URL,
		PollInterval: 10 * time.Millisecond,
		WaitTimeout:  60 * time.Millisecond,
	})

	_, err := ex.CompleteAuthorization(context.Background(), &AuthorizationHandle{URL: "u", Code: "c"})
	assert.True(t, errors.Is(err, ErrFlowTimeout), "got %v", err)
}

func TestCompleteAuthorizationDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "access_denied"})
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL).CompleteAuthorization(context.Background(), &AuthorizationHandle{URL: "u", Code: "c"})
	require.True(t, errors.Is(err, ErrFlowFailed), "got %v", err)

	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Hint, "access_denied")
}

func TestCompleteAuthorizationCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := newExchange(srv.URL).CompleteAuthorization(ctx, &AuthorizationHandle{URL: "u", Code: "c"})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/refresh-token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "old-refresh", body["refresh_token"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-access",
			"expires_in":   1800,
		})
	}))
	defer srv.Close()

	rec, err := newExchange(srv.URL).Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", rec.AccessToken)
	assert.Empty(t, rec.RefreshToken, "rotation is the caller's concern when the remote omits it")
	assert.Equal(t, "Bearer", rec.TokenType)
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "rotated",
			"expires_at":    time.Now().Unix() + 1800,
		})
	}))
	defer srv.Close()

	rec, err := newExchange(srv.URL).Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "rotated", rec.RefreshToken)
}

func TestRefreshInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token has been expired or revoked.",
		})
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL).Refresh(context.Background(), "dead")
	require.True(t, errors.Is(err, ErrInvalidGrant), "got %v", err)

	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Hint, "expired or revoked")
}

func TestRefreshStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrInvalidGrant},
		{http.StatusUnauthorized, ErrInvalidGrant},
		{http.StatusForbidden, ErrInvalidGrant},
		// Transient refusals must not trigger a full re-authorization.
		{http.StatusRequestTimeout, ErrTransport},
		{http.StatusTooManyRequests, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newExchange(srv.URL).Refresh(context.Background(), "r")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRefreshTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newExchange(srv.URL).Refresh(context.Background(), "r")
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
}

func TestRefreshServerErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL).Refresh(context.Background(), "r")
	assert.True(t, errors.Is(err, ErrTransport),
		"5xx is remote unavailability, not a dead grant; got %v", err)
}
