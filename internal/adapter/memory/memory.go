// Package memory implements an in-memory session store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// SessionStore keeps the session for the lifetime of the process.
type SessionStore struct {
	mu      sync.Mutex
	session *domain.Session
	saves   int
}

// New creates an empty session store.
func New() *SessionStore {
	return &SessionStore{}
}

// Ensure interfaces are met.
var _ domain.SessionStore = (*SessionStore)(nil)

// Load returns a copy of the stored session.
func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, domain.ErrNoSession
	}
	cp := *s.session
	return &cp, nil
}

// Save replaces the stored session.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.session = &cp
	s.saves++
	return nil
}

// Delete removes the stored session. Deleting an empty store is not an error.
func (s *SessionStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

// Saves returns how many times Save was called.
func (s *SessionStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
