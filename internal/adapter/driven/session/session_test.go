package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

type stubAuthenticator struct {
	passwords map[string]string
}

func (a stubAuthenticator) Authenticate(_ context.Context, username, password string) (model.Identity, error) {
	if a.passwords[username] != password {
		return nil, &driven.AuthenticationError{Reason: "The password is incorrect."}
	}
	return &model.User{
		UserID:     username,
		Roles:      []string{"admin"},
		Attributes: map[string]string{"username": username, "email": username + "@example.com"},
	}, nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{Secret: []byte("test-secret")}, nil)
	require.NoError(t, err)
	return m
}

// roundTrip runs fn against a session loaded from cookies and returns the
// cookies the response set.
func roundTrip(t *testing.T, m *Manager, cookies []*http.Cookie, fn func(*Session)) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	fn(m.Load(rec, req))
	return rec.Result().Cookies()
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(ManagerConfig{}, nil)
	assert.Error(t, err)
}

func TestSession_GuestWithoutCookie(t *testing.T) {
	m := newTestManager(t)

	roundTrip(t, m, nil, func(s *Session) {
		assert.False(t, s.IsLoggedIn())
		assert.Nil(t, s.Identity())
	})
}

func TestSession_LoginPersistsIdentity(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cookies := roundTrip(t, m, nil, func(s *Session) {
		s.SetAuthenticator(stubAuthenticator{passwords: map[string]string{"alice": "pw1"}})
		require.NoError(t, s.Login(ctx, "alice", "pw1"))
		assert.True(t, s.IsLoggedIn())
	})
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	roundTrip(t, m, cookies, func(s *Session) {
		require.True(t, s.IsLoggedIn())
		require.NotNil(t, s.Identity())
		assert.Equal(t, "alice", s.Identity().ID())
		data := model.DataOf(s.Identity())
		assert.Equal(t, "alice@example.com", data["email"])
		assert.Equal(t, []string{"admin"}, s.Identity().(*model.User).Roles)
	})
}

func TestSession_LoginWithoutAuthenticator(t *testing.T) {
	m := newTestManager(t)

	roundTrip(t, m, nil, func(s *Session) {
		err := s.Login(context.Background(), "alice", "pw1")
		assert.ErrorIs(t, err, driven.ErrNoAuthenticator)
	})
}

func TestSession_RejectedLoginLeavesStateUnchanged(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	auth := stubAuthenticator{passwords: map[string]string{"alice": "pw1", "bob": "pw2"}}

	cookies := roundTrip(t, m, nil, func(s *Session) {
		s.SetAuthenticator(auth)
		require.NoError(t, s.Login(ctx, "bob", "pw2"))
	})

	after := roundTrip(t, m, cookies, func(s *Session) {
		s.SetAuthenticator(auth)
		err := s.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, driven.ErrAuthenticationFailed)
		assert.True(t, s.IsLoggedIn())
		assert.Equal(t, "bob", s.Identity().ID())
	})
	assert.Empty(t, after, "no cookie written on rejection")
}

func TestSession_LogoutClearingIdentityDeletesCookie(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cookies := roundTrip(t, m, nil, func(s *Session) {
		s.SetAuthenticator(stubAuthenticator{passwords: map[string]string{"alice": "pw1"}})
		require.NoError(t, s.Login(ctx, "alice", "pw1"))
	})

	cleared := roundTrip(t, m, cookies, func(s *Session) {
		require.NoError(t, s.Logout(ctx, true))
		assert.False(t, s.IsLoggedIn())
		assert.Nil(t, s.Identity())
	})
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestSession_LogoutKeepingIdentity(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cookies := roundTrip(t, m, nil, func(s *Session) {
		s.SetAuthenticator(stubAuthenticator{passwords: map[string]string{"alice": "pw1"}})
		require.NoError(t, s.Login(ctx, "alice", "pw1"))
	})

	kept := roundTrip(t, m, cookies, func(s *Session) {
		require.NoError(t, s.Logout(ctx, false))
	})

	roundTrip(t, m, kept, func(s *Session) {
		assert.False(t, s.IsLoggedIn())
		require.NotNil(t, s.Identity())
		assert.Equal(t, "alice", s.Identity().ID())
	})
}

func TestSession_TamperedCookieIsGuest(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(ManagerConfig{Secret: []byte("other-secret")}, nil)
	require.NoError(t, err)

	cookies := roundTrip(t, other, nil, func(s *Session) {
		s.SetAuthenticator(stubAuthenticator{passwords: map[string]string{"alice": "pw1"}})
		require.NoError(t, s.Login(context.Background(), "alice", "pw1"))
	})

	roundTrip(t, m, cookies, func(s *Session) {
		assert.False(t, s.IsLoggedIn())
		assert.Nil(t, s.Identity())
	})
}

func TestSession_ExpiredCookieIsGuest(t *testing.T) {
	m, err := NewManager(ManagerConfig{Secret: []byte("test-secret"), TTL: time.Minute}, nil)
	require.NoError(t, err)
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	cookies := roundTrip(t, m, nil, func(s *Session) {
		s.SetAuthenticator(stubAuthenticator{passwords: map[string]string{"alice": "pw1"}})
		require.NoError(t, s.Login(context.Background(), "alice", "pw1"))
	})

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	roundTrip(t, m, cookies, func(s *Session) {
		assert.False(t, s.IsLoggedIn())
	})
}
