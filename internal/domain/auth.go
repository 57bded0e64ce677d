package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by a SessionStore that holds no session.
var ErrNoSession = errors.New("no session")

// User is the profile of the authenticated user as returned by /auth/me.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Age      *int     `json:"age,omitempty"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up payload.
type Registration struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Age      *int     `json:"age,omitempty"`
}

// ProfileUpdate is the PUT /auth/me payload.
type ProfileUpdate struct {
	Username string   `json:"username"`
	Password string   `json:"password,omitempty"`
	Email    string   `json:"email,omitempty"`
	Height   *float64 `json:"height"`
	Age      *int     `json:"age"`
}

// Session is the bearer token obtained at login. It is created by a
// successful login, destroyed by logout and read-only in between.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session expiry is known and in the past.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionSource yields the current session, or nil when logged out.
type SessionSource interface {
	Current() *Session
}

// SessionStore persists the session between process runs.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context) error
}
