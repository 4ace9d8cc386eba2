package auth

import "time"

// State is the lifecycle classification of a stored credential record.
type State int

const (
	StateAbsent State = iota
	StateValid
	StateExpired
	StateCorrupted
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateCorrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// DefaultSkew is the expiry safety margin: a token inside this window is
// treated as already expired so it cannot die mid-request.
const DefaultSkew = 5 * time.Minute

// Classify maps a record to its lifecycle state. Pure: no I/O, no clock
// reads, same inputs always produce the same state. A token expiring exactly
// at the skew boundary counts as expired.
func Classify(rec *Record, now time.Time, skew time.Duration) State {
	if rec == nil || rec.AccessToken == "" {
		return StateAbsent
	}
	if rec.ExpiresAt <= 0 {
		return StateCorrupted
	}
	if !now.Before(rec.Expiry().Add(-skew)) {
		return StateExpired
	}
	return StateValid
}
