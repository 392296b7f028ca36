// Package storage provides the durable client-local key-value store backing
// the session layer: the auth token, the serialized current user, and the
// theme preference. Each entry is a small file under the state directory and
// writes are atomic (write to a temporary file, then rename), so a crashed
// write never leaves a half-written entry behind. The client performs no
// expiry management on any entry.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/taskboard-go/apperror"
)

// Keys for the entries the client persists.
const (
	// KeyAuthToken holds the opaque bearer token.
	KeyAuthToken = "auth_token"
	// KeyCurrentUser holds the last-known current user as JSON.
	KeyCurrentUser = "current_user"
	// KeyDarkMode holds the theme preference as "true"/"false".
	KeyDarkMode = "dark_mode"
)

// Store is a file-backed key-value store rooted at a state directory.
// It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// Open creates the state directory if needed and returns a Store over it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, apperror.NewStorageError("state directory must not be empty", nil)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperror.NewStorageError(fmt.Sprintf("failed to create state directory %s", dir), err)
	}
	return &Store{dir: dir}, nil
}

// path maps a key to its file. Keys are internal constants; the check guards
// against a key ever smuggling in a path separator.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", apperror.NewStorageError(fmt.Sprintf("invalid storage key %q", key), nil)
	}
	return filepath.Join(s.dir, key), nil
}

// Get returns the value for key. The second return value reports whether the
// key exists.
func (s *Store) Get(key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, apperror.NewStorageError(fmt.Sprintf("failed to read %s", key), err)
	}
	return string(data), true, nil
}

// Set writes the value for key atomically.
func (s *Store) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return apperror.NewStorageError(fmt.Sprintf("failed to stage write for %s", key), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperror.NewStorageError(fmt.Sprintf("failed to write %s", key), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperror.NewStorageError(fmt.Sprintf("failed to write %s", key), err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return apperror.NewStorageError(fmt.Sprintf("failed to replace %s", key), err)
	}
	return nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperror.NewStorageError(fmt.Sprintf("failed to delete %s", key), err)
	}
	return nil
}

// Token returns the persisted auth token, or "" when none is stored.
// A read failure is treated as an absent token: the worst outcome is an
// unauthenticated request the server rejects.
func (s *Store) Token() string {
	value, ok, err := s.Get(KeyAuthToken)
	if err != nil || !ok {
		return ""
	}
	return value
}

// SetToken persists the auth token.
func (s *Store) SetToken(token string) error {
	return s.Set(KeyAuthToken, token)
}
