// Package session implements the host's per-request user session on top of
// a signed JWT cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

const (
	DefaultCookieName = "userpanel_session"
	DefaultTTL        = 12 * time.Hour

	issuer = "userpanel"
)

// Claims is the JWT payload carried by the session cookie.
type Claims struct {
	LoggedIn bool              `json:"auth"`
	Roles    []string          `json:"roles,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// ManagerConfig configures a Manager. Secret is required.
type ManagerConfig struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads and persists sessions from request cookies.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a Manager. Empty CookieName and zero TTL take defaults.
func NewManager(cfg ManagerConfig, logger *slog.Logger) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		secret:     cfg.Secret,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Load returns the session carried by r. A missing, expired or tampered
// cookie yields an unauthenticated session without an identity. Mutations
// are written to w as Set-Cookie headers, so Login/Logout must run before
// the response header is written.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	s := &Session{manager: m, w: w}

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return s
	}

	claims, err := m.parse(cookie.Value)
	if err != nil {
		m.logger.Debug("discarding session cookie", "error", err)
		return s
	}

	s.loggedIn = claims.LoggedIn
	s.identity = &model.User{
		UserID:     claims.Subject,
		Roles:      claims.Roles,
		Attributes: claims.Data,
	}
	return s
}

func (m *Manager) sign(id model.Identity, loggedIn bool) (string, error) {
	now := m.now()
	claims := Claims{
		LoggedIn: loggedIn,
		Data:     model.DataOf(id),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   id.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if u, ok := id.(*model.User); ok {
		claims.Roles = u.Roles
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
}

// Compile-time interface satisfaction check.
var _ driven.UserSession = (*Session)(nil)

// Session is the request-scoped UserSession. It is not safe for concurrent use.
type Session struct {
	manager       *Manager
	w             http.ResponseWriter
	identity      model.Identity
	loggedIn      bool
	authenticator driven.Authenticator
}

// IsLoggedIn reports whether the session is authenticated.
func (s *Session) IsLoggedIn() bool {
	return s.loggedIn
}

// Identity returns the attached identity, which may outlive a non-clearing logout.
func (s *Session) Identity() model.Identity {
	return s.identity
}

// SetAuthenticator installs the authenticator used by Login.
func (s *Session) SetAuthenticator(a driven.Authenticator) {
	s.authenticator = a
}

// Login authenticates username/password and stores the identity in the cookie.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if s.authenticator == nil {
		return driven.ErrNoAuthenticator
	}

	id, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	token, err := s.manager.sign(id, true)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	s.manager.writeCookie(s.w, token, int(s.manager.ttl.Seconds()))

	s.identity = id
	s.loggedIn = true
	return nil
}

// Logout marks the session unauthenticated. clearIdentity also drops the
// identity and deletes the cookie.
func (s *Session) Logout(_ context.Context, clearIdentity bool) error {
	if clearIdentity || s.identity == nil {
		s.manager.writeCookie(s.w, "", -1)
		s.identity = nil
		s.loggedIn = false
		return nil
	}

	token, err := s.manager.sign(s.identity, false)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	s.manager.writeCookie(s.w, token, int(s.manager.ttl.Seconds()))
	s.loggedIn = false
	return nil
}
