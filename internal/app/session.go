package app

import (
	"sync"
	"time"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// SessionContext holds the current session. The auth service is its only
// writer; everything else reads it through domain.SessionSource.
type SessionContext struct {
	mu  sync.RWMutex
	s   *domain.Session
	now func() time.Time
}

// NewSessionContext returns an empty (logged out) SessionContext.
func NewSessionContext() *SessionContext {
	return &SessionContext{now: time.Now}
}

// Current returns a copy of the session, or nil when logged out or expired.
func (c *SessionContext) Current() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.s == nil || c.s.Expired(c.now()) {
		return nil
	}
	cp := *c.s
	return &cp
}

func (c *SessionContext) set(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

func (c *SessionContext) clear() {
	c.set(nil)
}
