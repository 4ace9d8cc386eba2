// Package output provides JSON/Markdown output formatting and error handling.
package output

// Exit codes for scripting.
const (
	ExitOK        = 0 // Success
	ExitUsage     = 1 // Invalid arguments or flags
	ExitNotFound  = 2 // Resource not found
	ExitAuth      = 3 // Not authenticated or credentials unusable
	ExitFlow      = 4 // Authorization flow did not complete
	ExitRateLimit = 5 // Rate limited (429)
	ExitNetwork   = 6 // Connection/DNS/timeout error
	ExitAPI       = 7 // Server returned error
)

// Error codes for the JSON envelope.
const (
	CodeUsage           = "usage"
	CodeNotFound        = "not_found"
	CodeAuth            = "auth_required"
	CodeInvalidGrant    = "invalid_grant"
	CodeCorrupted       = "corrupted"
	CodeFlowUnavailable = "flow_unavailable"
	CodeFlowTimeout     = "flow_timeout"
	CodeFlowFailed      = "flow_failed"
	CodeRateLimit       = "rate_limit"
	CodeNetwork         = "network"
	CodeAPI             = "api_error"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNotFound:
		return ExitNotFound
	case CodeAuth, CodeInvalidGrant, CodeCorrupted:
		return ExitAuth
	case CodeFlowUnavailable, CodeFlowTimeout, CodeFlowFailed:
		return ExitFlow
	case CodeRateLimit:
		return ExitRateLimit
	case CodeNetwork:
		return ExitNetwork
	case CodeAPI:
		return ExitAPI
	default:
		return ExitAPI
	}
}
