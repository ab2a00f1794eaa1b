// Package auth owns the client-side credential lifecycle: a single persisted
// identity record (display name + bearer token) and the session gate that
// wraps every authenticated call.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"thoth/internal/logging"
)

// Credential is the persisted identity record. An empty Token means
// unauthenticated; DisplayName may be empty even when a token exists.
// JSON keys mirror the record the web client kept in localStorage.
type Credential struct {
	DisplayName string `json:"username"`
	Token       string `json:"token"`
}

// Authenticated reports whether a bearer token is present.
func (c Credential) Authenticated() bool {
	return c.Token != ""
}

// Store holds the current credential in memory and mirrors it to a JSON
// file so it survives process restarts. At most one credential is active
// per store; Set replaces the whole record, never part of it.
type Store struct {
	mu   sync.RWMutex
	path string
	cred Credential
}

// NewStore creates a store backed by the given file path, loading any
// existing credential. A missing or unreadable file simply means
// unauthenticated; Get never fails.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.SessionWarn("failed to read credential file: %v", err)
		}
		return
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logging.SessionWarn("corrupt credential file, starting unauthenticated: %v", err)
		return
	}
	s.cred = cred
}

// Get returns the current credential. Absence is represented by the zero
// value, never an error.
func (s *Store) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// Set replaces the credential atomically and persists it. A concurrent
// reader sees either the old record or the new one, never a mix.
func (s *Store) Set(displayName, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{DisplayName: displayName, Token: token}
	return s.saveLocked()
}

// Clear removes the credential. Idempotent: clearing an empty store or a
// store whose file is already gone is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	logging.Session("credential cleared")
	return nil
}

// saveLocked writes the credential via temp-file rename so a crash mid-write
// never leaves a partial record on disk.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.cred, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
