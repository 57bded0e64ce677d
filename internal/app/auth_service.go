package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

var (
	// ErrMissingCredentials indicates an empty username or password.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrNotLoggedIn indicates an operation that needs a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// AuthService manages the session lifecycle: created at login, destroyed at
// logout, restored from the store on start.
type AuthService struct {
	api      domain.AuthAPI
	store    domain.SessionStore
	sessions *SessionContext
	refresh  domain.Resetter
}

// NewAuthService creates an AuthService writing to sessions. refresh is reset
// whenever the session changes.
func NewAuthService(api domain.AuthAPI, store domain.SessionStore, sessions *SessionContext, refresh domain.Resetter) *AuthService {
	return &AuthService{api: api, store: store, sessions: sessions, refresh: refresh}
}

// Restore loads a persisted session. Expired sessions are deleted.
func (s *AuthService) Restore(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.sessions.now()) {
		log.Infof("auth: stored session for %q expired at %s", sess.Username, sess.ExpiresAt.Format(time.RFC3339))
		return s.store.Delete(ctx)
	}
	s.sessions.set(sess)
	return nil
}

// UseToken installs a token obtained elsewhere (e.g. from the environment)
// without persisting it.
func (s *AuthService) UseToken(token string) *domain.Session {
	sess := newSession(token, "", s.sessions.now())
	s.sessions.set(sess)
	s.refresh.Reset()
	return sess
}

// Login exchanges credentials for a token and starts a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	token, err := s.api.Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return s.start(ctx, token, username)
}

// Register creates an account and logs in with it.
func (s *AuthService) Register(ctx context.Context, r domain.Registration) (*domain.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return nil, ErrMissingCredentials
	}
	u, token, err := s.api.Register(ctx, r)
	if err != nil {
		return nil, err
	}
	if token == "" {
		token, err = s.api.Login(ctx, domain.Credentials{Username: r.Username, Password: r.Password})
		if err != nil {
			return u, fmt.Errorf("registered, but login failed: %w", err)
		}
	}
	if _, err := s.start(ctx, token, r.Username); err != nil {
		return u, err
	}
	return u, nil
}

// Logout destroys the session locally. The backend keeps no session state.
func (s *AuthService) Logout(ctx context.Context) error {
	s.sessions.clear()
	s.refresh.Reset()
	if err := s.store.Delete(ctx); err != nil && !errors.Is(err, domain.ErrNoSession) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Profile returns the logged in user.
func (s *AuthService) Profile(ctx context.Context) (*domain.User, error) {
	if s.sessions.Current() == nil {
		return nil, ErrNotLoggedIn
	}
	return s.api.Me(ctx)
}

// UpdateProfile changes email, height and age. The username is kept.
func (s *AuthService) UpdateProfile(ctx context.Context, email string, height *float64, age *int) (*domain.User, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	if height != nil && *height <= 0 {
		return nil, errors.New("height must be > 0")
	}
	if age != nil && *age <= 0 {
		return nil, errors.New("age must be > 0")
	}
	username := sess.Username
	if username == "" {
		me, err := s.api.Me(ctx)
		if err != nil {
			return nil, err
		}
		username = me.Username
	}
	return s.api.UpdateMe(ctx, domain.ProfileUpdate{
		Username: username,
		Email:    strings.TrimSpace(email),
		Height:   height,
		Age:      age,
	})
}

func (s *AuthService) start(ctx context.Context, token, username string) (*domain.Session, error) {
	sess := newSession(token, username, s.sessions.now())
	s.sessions.set(sess)
	s.refresh.Reset()
	if err := s.store.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	log.Infof("auth: logged in as %q", sess.Username)
	return sess, nil
}

// newSession reads the subject and expiry from the token claims. The
// signature is not checked; the backend remains the authority.
func newSession(token, username string, now time.Time) *domain.Session {
	sess := &domain.Session{Token: token, Username: username, CreatedAt: now.UTC()}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Debugf("auth: token is not a readable jwt: %v", err)
		return sess
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time.UTC()
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" && sess.Username == "" {
		sess.Username = sub
	}
	return sess
}
