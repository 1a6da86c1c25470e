package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// ErrNoAuthenticator is returned by UserSession.Login when no Authenticator
// has been installed.
var ErrNoAuthenticator = errors.New("no authenticator installed on session")

// UserSession is the host's per-request view of the current user. The user
// panel only reads it and requests login or logout; the session owns its state.
type UserSession interface {
	IsLoggedIn() bool

	// Identity returns the current identity, or nil if none is attached.
	Identity() model.Identity

	// SetAuthenticator installs the strategy used by subsequent Login calls.
	SetAuthenticator(a Authenticator)

	// Login authenticates and attaches the resulting identity. Rejected
	// credentials yield an error matching ErrAuthenticationFailed and leave
	// the session unchanged.
	Login(ctx context.Context, username, password string) error

	// Logout marks the session unauthenticated. When clearIdentity is true
	// the identity is discarded as well.
	Logout(ctx context.Context, clearIdentity bool) error
}
