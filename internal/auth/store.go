package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

const lockTimeout = 2 * time.Second

// Store persists a single credential record. Read returns (nil, nil) when
// no record exists; corruption surfaces as ErrCorruptedRecord.
type Store interface {
	Read() (*Record, error)
	Write(*Record) error
	Clear() error
}

// FileStore keeps the record in a mode-0600 JSON file. A sibling advisory
// lock serializes concurrent invocations so two processes cannot interleave
// a read-refresh-write cycle and discard a rotated refresh token.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credential file location.
func (s *FileStore) Path() string {
	return s.path
}

// withLock runs fn while holding the lock file. Fail-closed: a lock that
// cannot be acquired within the timeout is an error, not a green light.
func (s *FileStore) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	fl := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire credential lock: %w", err)
	}
	if !locked {
		return errors.New("credential file is locked by another process")
	}
	defer fl.Unlock()

	return fn()
}

// Read loads and parses the record. A missing file is absence, not an error.
func (s *FileStore) Read() (*Record, error) {
	var rec *Record
	err := s.withLock(func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return corruptedErr(err)
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Write atomically replaces the stored record. No merging: the file always
// holds exactly what was last written.
func (s *FileStore) Write(rec *Record) error {
	return s.withLock(func() error {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		return atomicWrite(s.path, data)
	})
}

// Clear removes the record. Absence is not an error.
func (s *FileStore) Clear() error {
	return s.withLock(func() error {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

// atomicWrite lands data via a same-directory temp file and rename, so a
// crash mid-write leaves either the old file or the new one, never a torn
// mix. Windows cannot rename over an existing file, hence the remove+retry.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(0600); err != nil {
		cleanup()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		if runtime.GOOS == "windows" {
			if rmErr := os.Remove(path); rmErr == nil {
				if err := os.Rename(tmpName, path); err == nil {
					return nil
				}
			}
		}
		os.Remove(tmpName)
		return err
	}
	return nil
}
