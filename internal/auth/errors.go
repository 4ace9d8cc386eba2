package auth

import "fmt"

// Reason codes carried by Error. These are stable strings surfaced in JSON
// output and mapped to exit codes by the output package.
const (
	ReasonCorrupted       = "corrupted"
	ReasonInvalidGrant    = "invalid_grant"
	ReasonTransport       = "network"
	ReasonFlowUnavailable = "flow_unavailable"
	ReasonFlowTimeout     = "flow_timeout"
	ReasonFlowFailed      = "flow_failed"
	ReasonEnsureFailed    = "ensure_failed"
)

// Error is a reason-coded auth failure. The Hint holds what the user can do
// about it, or the remote's own description of the rejection.
type Error struct {
	Reason  string
	Message string
	Hint    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by reason, so errors.Is works against the sentinels below
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrCorruptedRecord = &Error{Reason: ReasonCorrupted, Message: "stored credentials are unreadable"}
	ErrInvalidGrant    = &Error{Reason: ReasonInvalidGrant, Message: "refresh token was rejected"}
	ErrTransport       = &Error{Reason: ReasonTransport, Message: "could not reach the OAuth service"}
	ErrFlowUnavailable = &Error{Reason: ReasonFlowUnavailable, Message: "authorization flow could not start"}
	ErrFlowTimeout     = &Error{Reason: ReasonFlowTimeout, Message: "authorization flow timed out"}
	ErrFlowFailed      = &Error{Reason: ReasonFlowFailed, Message: "authorization flow failed"}
	ErrEnsureFailed    = &Error{Reason: ReasonEnsureFailed, Message: "could not obtain a usable access token"}
)

func corruptedErr(cause error) *Error {
	return &Error{
		Reason:  ReasonCorrupted,
		Message: "stored credentials are unreadable",
		Hint:    "Run: adsctl auth login",
		Cause:   cause,
	}
}

func invalidGrantErr(detail string) *Error {
	return &Error{
		Reason:  ReasonInvalidGrant,
		Message: "refresh token was rejected",
		Hint:    detail,
	}
}

func transportErr(cause error) *Error {
	return &Error{
		Reason:  ReasonTransport,
		Message: "could not reach the OAuth service",
		Hint:    "Check your network connection and retry",
		Cause:   cause,
	}
}

func flowUnavailableErr(cause error) *Error {
	return &Error{
		Reason:  ReasonFlowUnavailable,
		Message: "authorization flow could not start",
		Hint:    "Check oauth_base_url and that the OAuth service is reachable",
		Cause:   cause,
	}
}

func flowTimeoutErr(wait string) *Error {
	return &Error{
		Reason:  ReasonFlowTimeout,
		Message: "authorization was not completed within " + wait,
		Hint:    "Run: adsctl auth login to start over",
	}
}

func flowFailedErr(detail string) *Error {
	return &Error{
		Reason:  ReasonFlowFailed,
		Message: "authorization flow failed",
		Hint:    detail,
	}
}

func ensureFailedErr(cause error) *Error {
	return &Error{
		Reason:  ReasonEnsureFailed,
		Message: "could not obtain a usable access token",
		Cause:   cause,
	}
}
