package auth

import (
	"encoding/json"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "adsctl"
	keyringKey     = "adsctl::credentials"
)

// KeyringStore keeps the record in the system keychain instead of a
// plaintext file. Selected via the credential_backend config option.
type KeyringStore struct{}

// NewKeyringStore creates a keychain-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// KeyringAvailable probes whether the system keychain works here.
func KeyringAvailable() bool {
	probe := "adsctl::probe"
	if err := keyring.Set(keyringService, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}

// Read loads the record from the keychain. Returns (nil, nil) when absent.
func (s *KeyringStore) Read() (*Record, error) {
	data, err := keyring.Get(keyringService, keyringKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, corruptedErr(err)
	}
	return &rec, nil
}

// Write replaces the keychain entry. Keychain writes are single-item
// replacements, so atomicity comes for free.
func (s *KeyringStore) Write(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringKey, string(data))
}

// Clear removes the keychain entry. Absence is not an error.
func (s *KeyringStore) Clear() error {
	err := keyring.Delete(keyringService, keyringKey)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
