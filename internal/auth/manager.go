package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Manager is the token orchestrator: it sequences the classifier with store
// and exchange calls so a usable access token is always produced or a precise
// failure reported. Dependencies are injected, so tests run with fakes.
type Manager struct {
	store     Store
	exchange  Exchange
	endpoints Endpoints
	skew      time.Duration
	now       func() time.Time
	onAuthURL func(url string)

	mu sync.Mutex
}

// Options configures a Manager.
type Options struct {
	// Skew is the expiry safety margin; DefaultSkew when zero.
	Skew time.Duration

	// Endpoints is static metadata returned by Endpoints(); no network call.
	Endpoints Endpoints

	// OnAuthURL is invoked with the consent URL before the blocking wait, so
	// the caller can open a browser or display it.
	OnAuthURL func(url string)

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewManager creates a Manager with injected store and exchange.
func NewManager(store Store, exchange Exchange, opts Options) *Manager {
	skew := opts.Skew
	if skew <= 0 {
		skew = DefaultSkew
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	onAuthURL := opts.OnAuthURL
	if onAuthURL == nil {
		onAuthURL = func(string) {}
	}
	return &Manager{
		store:     store,
		exchange:  exchange,
		endpoints: opts.Endpoints,
		skew:      skew,
		now:       now,
		onAuthURL: onAuthURL,
	}
}

// EnsureToken returns an access token that was valid at return time, or a
// reason-coded error. Per call it performs at most one refresh attempt and at
// most one authorization flow; transport failures during refresh are
// surfaced, never silently retried into the interactive flow.
func (m *Manager) EnsureToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Read()
	if err != nil && !errors.Is(err, ErrCorruptedRecord) {
		return "", err
	}
	corrupted := errors.Is(err, ErrCorruptedRecord)

	state := Classify(rec, m.now(), m.skew)
	if corrupted {
		state = StateCorrupted
	}

	switch state {
	case StateValid:
		return rec.AccessToken, nil

	case StateCorrupted:
		// Unreadable state is discarded before regenerating, so a bad file
		// cannot shadow the fresh record.
		if err := m.store.Clear(); err != nil {
			return "", err
		}
		return m.reauthorizeLocked(ctx)

	case StateAbsent:
		return m.reauthorizeLocked(ctx)

	case StateExpired:
		if rec.RefreshToken == "" {
			return m.reauthorizeLocked(ctx)
		}
		token, err := m.refreshLocked(ctx, rec)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, ErrInvalidGrant) {
			return m.reauthorizeLocked(ctx)
		}
		return "", ensureFailedErr(err)

	default:
		return "", ensureFailedErr(nil)
	}
}

// Status is the result of a non-mutating credential inspection.
type Status struct {
	State  State
	Record *Record // nil unless a parseable record exists
}

// CheckStatus reads and classifies the stored record. No mutation, no
// network.
func (m *Manager) CheckStatus() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Read()
	if err != nil {
		if errors.Is(err, ErrCorruptedRecord) {
			return Status{State: StateCorrupted}, nil
		}
		return Status{}, err
	}
	return Status{State: Classify(rec, m.now(), m.skew), Record: rec}, nil
}

// ForceRefresh skips the valid short-circuit: it always attempts a refresh,
// falling back to a full re-authorization when no refresh token exists or
// the grant is rejected.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Read()
	if err != nil && !errors.Is(err, ErrCorruptedRecord) {
		return "", err
	}
	if rec == nil || rec.RefreshToken == "" {
		return m.reauthorizeLocked(ctx)
	}

	token, err := m.refreshLocked(ctx, rec)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, ErrInvalidGrant) {
		return m.reauthorizeLocked(ctx)
	}
	return "", ensureFailedErr(err)
}

// Login unconditionally runs the interactive authorization flow and persists
// the result, replacing any stored record.
func (m *Manager) Login(ctx context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.runFullAuthorization(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ClearCredentials removes the stored record.
func (m *Manager) ClearCredentials() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear()
}

// Endpoints returns the OAuth endpoint set. Static metadata, no network.
func (m *Manager) Endpoints() Endpoints {
	return m.endpoints
}

// refreshLocked exchanges the refresh token and persists the result. The
// previous refresh token is preserved when the remote omits a rotation.
func (m *Manager) refreshLocked(ctx context.Context, old *Record) (string, error) {
	fresh, err := m.exchange.Refresh(ctx, old.RefreshToken)
	if err != nil {
		return "", err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	if err := m.store.Write(fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// reauthorizeLocked runs the full flow and persists the result. Nothing is
// written until the exchange fully succeeds, so an abandoned wait leaves the
// store untouched.
func (m *Manager) reauthorizeLocked(ctx context.Context) (string, error) {
	rec, err := m.runFullAuthorization(ctx)
	if err != nil {
		return "", err
	}
	if err := m.store.Write(rec); err != nil {
		return "", err
	}
	return rec.AccessToken, nil
}

func (m *Manager) runFullAuthorization(ctx context.Context) (*Record, error) {
	handle, err := m.exchange.StartAuthorization(ctx)
	if err != nil {
		return nil, err
	}

	// Surface the URL before blocking so the caller can open a browser.
	m.onAuthURL(handle.URL)

	return m.exchange.CompleteAuthorization(ctx, handle)
}
