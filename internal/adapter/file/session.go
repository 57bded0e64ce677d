// Package file persists the session as a JSON file so CLI invocations share
// one login.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// SessionStore reads and writes a single session file.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store backed by path. The file is created on the
// first Save.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

var _ domain.SessionStore = (*SessionStore)(nil)

// Path returns the session file location.
func (s *SessionStore) Path() string { return s.path }

// Load reads the session file.
func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return nil, domain.ErrNoSession
	}
	return &sess, nil
}

// Save writes the session file with owner-only permissions. The file is
// replaced atomically.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Delete removes the session file.
func (s *SessionStore) Delete(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
