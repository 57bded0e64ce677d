package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesniewskii/weight-tracker/internal/adapter/memory"
	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
)

type mockAuthAPI struct {
	loginFn    func(ctx context.Context, c domain.Credentials) (string, error)
	registerFn func(ctx context.Context, r domain.Registration) (*domain.User, string, error)
	meFn       func(ctx context.Context) (*domain.User, error)
	updateFn   func(ctx context.Context, u domain.ProfileUpdate) (*domain.User, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, c domain.Credentials) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, c)
	}
	return "opaque-token", nil
}

func (m *mockAuthAPI) Register(ctx context.Context, r domain.Registration) (*domain.User, string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, r)
	}
	return &domain.User{ID: 1, Username: r.Username}, "", nil
}

func (m *mockAuthAPI) Me(ctx context.Context) (*domain.User, error) {
	if m.meFn != nil {
		return m.meFn(ctx)
	}
	return &domain.User{ID: 1, Username: "alice"}, nil
}

func (m *mockAuthAPI) UpdateMe(ctx context.Context, u domain.ProfileUpdate) (*domain.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return &domain.User{ID: 1, Username: u.Username, Email: u.Email, Height: u.Height, Age: u.Age}, nil
}

type countingResetter struct {
	n int
}

func (c *countingResetter) Reset() { c.n++ }

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte("your-secret-key"))
	require.NoError(t, err)
	return tok
}

func newAuth(api domain.AuthAPI) (*app.AuthService, *app.SessionContext, *memory.SessionStore, *countingResetter) {
	sessions := app.NewSessionContext()
	store := memory.New()
	reset := &countingResetter{}
	return app.NewAuthService(api, store, sessions, reset), sessions, store, reset
}

func TestLogin_ReadsClaims(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signedToken(t, "alice", exp)
	api := &mockAuthAPI{
		loginFn: func(_ context.Context, c domain.Credentials) (string, error) {
			assert.Equal(t, "alice", c.Username)
			assert.Equal(t, "pw", c.Password)
			return token, nil
		},
	}
	svc, sessions, store, reset := newAuth(api)

	sess, err := svc.Login(context.Background(), " alice ", "pw")
	require.NoError(t, err)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, "alice", sess.Username)
	assert.True(t, exp.Equal(sess.ExpiresAt))

	require.NotNil(t, sessions.Current())
	assert.Equal(t, token, sessions.Current().Token)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, 1, reset.n)
}

func TestLogin_OpaqueToken(t *testing.T) {
	svc, sessions, _, _ := newAuth(&mockAuthAPI{})

	sess, err := svc.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", sess.Username)
	assert.True(t, sess.ExpiresAt.IsZero())
	assert.NotNil(t, sessions.Current())
}

func TestLogin_Failures(t *testing.T) {
	svc, sessions, store, reset := newAuth(&mockAuthAPI{
		loginFn: func(_ context.Context, _ domain.Credentials) (string, error) {
			return "", &domain.FetchError{Kind: domain.KindStatus, StatusCode: 401, Message: "Incorrect username or password"}
		},
	})

	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, app.ErrMissingCredentials)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.True(t, domain.IsUnauthorized(err))
	assert.Nil(t, sessions.Current())
	assert.Zero(t, store.Saves())
	assert.Zero(t, reset.n)
}

func TestLogout(t *testing.T) {
	svc, sessions, store, reset := newAuth(&mockAuthAPI{})
	ctx := context.Background()
	_, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	assert.Nil(t, sessions.Current())
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Equal(t, 2, reset.n)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored session", func(t *testing.T) {
		svc, sessions, _, _ := newAuth(&mockAuthAPI{})
		require.NoError(t, svc.Restore(ctx))
		assert.Nil(t, sessions.Current())
	})

	t.Run("valid session", func(t *testing.T) {
		svc, sessions, store, _ := newAuth(&mockAuthAPI{})
		require.NoError(t, store.Save(ctx, &domain.Session{Token: "t", Username: "alice", ExpiresAt: time.Now().Add(time.Hour)}))
		require.NoError(t, svc.Restore(ctx))
		require.NotNil(t, sessions.Current())
		assert.Equal(t, "alice", sessions.Current().Username)
	})

	t.Run("expired session is dropped", func(t *testing.T) {
		svc, sessions, store, _ := newAuth(&mockAuthAPI{})
		require.NoError(t, store.Save(ctx, &domain.Session{Token: "t", ExpiresAt: time.Now().Add(-time.Hour)}))
		require.NoError(t, svc.Restore(ctx))
		assert.Nil(t, sessions.Current())
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrNoSession)
	})
}

func TestSessionContext_ExpiresInPlace(t *testing.T) {
	svc, sessions, _, _ := newAuth(&mockAuthAPI{})
	svc.UseToken(signedToken(t, "alice", time.Now().Add(-time.Minute)))
	assert.Nil(t, sessions.Current(), "an expired token yields no session")

	sess := svc.UseToken(signedToken(t, "carol", time.Now().Add(time.Hour)))
	assert.Equal(t, "carol", sess.Username)
	assert.NotNil(t, sessions.Current())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("logs in after sign-up", func(t *testing.T) {
		logins := 0
		api := &mockAuthAPI{
			loginFn: func(_ context.Context, c domain.Credentials) (string, error) {
				logins++
				assert.Equal(t, "dave", c.Username)
				return "tok", nil
			},
		}
		svc, sessions, _, _ := newAuth(api)
		age := 30
		u, err := svc.Register(ctx, domain.Registration{Username: "dave", Password: "pw", Age: &age})
		require.NoError(t, err)
		assert.Equal(t, "dave", u.Username)
		assert.Equal(t, 1, logins)
		assert.Equal(t, "tok", sessions.Current().Token)
	})

	t.Run("uses issued token", func(t *testing.T) {
		api := &mockAuthAPI{
			registerFn: func(_ context.Context, r domain.Registration) (*domain.User, string, error) {
				return &domain.User{ID: 2, Username: r.Username}, "issued", nil
			},
			loginFn: func(_ context.Context, _ domain.Credentials) (string, error) {
				t.Fatal("login must not be called")
				return "", nil
			},
		}
		svc, sessions, _, _ := newAuth(api)
		_, err := svc.Register(ctx, domain.Registration{Username: "erin", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "issued", sessions.Current().Token)
	})

	t.Run("backend rejects", func(t *testing.T) {
		api := &mockAuthAPI{
			registerFn: func(_ context.Context, _ domain.Registration) (*domain.User, string, error) {
				return nil, "", &domain.FetchError{Kind: domain.KindStatus, StatusCode: 400, Message: "Email already registered"}
			},
		}
		svc, sessions, _, _ := newAuth(api)
		_, err := svc.Register(ctx, domain.Registration{Username: "erin", Password: "pw"})
		fe, ok := domain.AsFetchError(err)
		require.True(t, ok)
		assert.Equal(t, "Email already registered", fe.Message)
		assert.Nil(t, sessions.Current())
	})

	t.Run("missing password", func(t *testing.T) {
		svc, _, _, _ := newAuth(&mockAuthAPI{})
		_, err := svc.Register(ctx, domain.Registration{Username: "x"})
		assert.ErrorIs(t, err, app.ErrMissingCredentials)
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAuth(&mockAuthAPI{})

	_, err := svc.Profile(ctx)
	assert.ErrorIs(t, err, app.ErrNotLoggedIn)
	_, err = svc.UpdateProfile(ctx, "a@b.c", nil, nil)
	assert.ErrorIs(t, err, app.ErrNotLoggedIn)

	_, err = svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	u, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	height := 180.0
	u, err = svc.UpdateProfile(ctx, " alice@example.com ", &height, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, 180.0, *u.Height)

	bad := -1
	_, err = svc.UpdateProfile(ctx, "", nil, &bad)
	assert.Error(t, err)
}

func TestUpdateProfile_UsernameFromBackend(t *testing.T) {
	ctx := context.Background()
	var sent domain.ProfileUpdate
	api := &mockAuthAPI{
		meFn: func(_ context.Context) (*domain.User, error) {
			return &domain.User{ID: 5, Username: "frank"}, nil
		},
		updateFn: func(_ context.Context, u domain.ProfileUpdate) (*domain.User, error) {
			sent = u
			return &domain.User{ID: 5, Username: u.Username}, nil
		},
	}
	svc, _, _, _ := newAuth(api)
	svc.UseToken("opaque")

	_, err := svc.UpdateProfile(ctx, "f@example.com", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "frank", sent.Username)
}

func TestRestore_StoreError(t *testing.T) {
	sessions := app.NewSessionContext()
	svc := app.NewAuthService(&mockAuthAPI{}, failingStore{}, sessions, &countingResetter{})
	assert.Error(t, svc.Restore(context.Background()))
}

type failingStore struct{}

func (failingStore) Load(context.Context) (*domain.Session, error) { return nil, errors.New("disk") }
func (failingStore) Save(context.Context, *domain.Session) error   { return errors.New("disk") }
func (failingStore) Delete(context.Context) error                  { return errors.New("disk") }
