package output

import (
	"errors"
	"fmt"

	"github.com/adsctl/adsctl/internal/auth"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:    CodeAuth,
		Message: msg,
		Hint:    "Run: adsctl auth login",
	}
}

func ErrRateLimit(retryAfter int) *Error {
	hint := "Try again later"
	if retryAfter > 0 {
		hint = fmt.Sprintf("Try again in %d seconds", retryAfter)
	}
	return &Error{
		Code:       CodeRateLimit,
		Message:    "Rate limited",
		Hint:       hint,
		HTTPStatus: 429,
		Retryable:  true,
	}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "Network error",
		Hint:      cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

func ErrAPI(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// authCodes maps auth error reasons to envelope error codes.
var authCodes = map[string]string{
	auth.ReasonCorrupted:       CodeCorrupted,
	auth.ReasonInvalidGrant:    CodeInvalidGrant,
	auth.ReasonTransport:       CodeNetwork,
	auth.ReasonFlowUnavailable: CodeFlowUnavailable,
	auth.ReasonFlowTimeout:     CodeFlowTimeout,
	auth.ReasonFlowFailed:      CodeFlowFailed,
	auth.ReasonEnsureFailed:    CodeAuth,
}

// FromAuth converts an auth error into a structured Error, preserving the
// reason code and hint.
func FromAuth(err error) *Error {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		return AsError(err)
	}
	code, ok := authCodes[ae.Reason]
	if !ok {
		code = CodeAuth
	}
	return &Error{
		Code:      code,
		Message:   ae.Message,
		Hint:      ae.Hint,
		Retryable: code == CodeNetwork,
		Cause:     err,
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var ae *auth.Error
	if errors.As(err, &ae) {
		return FromAuth(err)
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}
