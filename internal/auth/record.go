package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Record is the persisted credential shape. Expiry is stored as epoch
// seconds; readers accept an RFC3339 string too, since other tools have
// written the file that way.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// recordWire defers expires_at decoding so a flexible-but-strict parse can
// distinguish legacy formats from corruption.
type recordWire struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    json.RawMessage `json:"expires_at"`
	TokenType    string          `json:"token_type"`
	Scope        string          `json:"scope"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.AccessToken = w.AccessToken
	r.RefreshToken = w.RefreshToken
	r.TokenType = w.TokenType
	r.Scope = w.Scope
	r.ExpiresAt = 0

	if len(w.ExpiresAt) == 0 || string(w.ExpiresAt) == "null" {
		return nil
	}
	expiry, err := parseExpiry(w.ExpiresAt)
	if err != nil {
		return err
	}
	r.ExpiresAt = expiry
	return nil
}

// parseExpiry accepts epoch seconds (number or numeric string) or an RFC3339
// timestamp. Anything else is corruption, not a zero value.
func parseExpiry(raw json.RawMessage) (int64, error) {
	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return epoch, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.Unix(), nil
		}
		return 0, fmt.Errorf("unparseable expires_at %q", s)
	}
	return 0, fmt.Errorf("unparseable expires_at %s", string(raw))
}

// Expiry returns the expiry instant.
func (r *Record) Expiry() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}
