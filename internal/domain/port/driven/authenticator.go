package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// ErrAuthenticationFailed matches every credential rejection returned by an
// Authenticator or a UserSession login.
var ErrAuthenticationFailed = errors.New("authentication failed")

// AuthenticationError is a credential rejection with a user-visible reason.
type AuthenticationError struct {
	Reason string
}

// Error returns the user-visible reason.
func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return ErrAuthenticationFailed.Error()
	}
	return e.Reason
}

// Is reports whether target is ErrAuthenticationFailed.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// Authenticator validates a username/password pair against some backend and
// returns the resulting identity.
type Authenticator interface {
	// Authenticate returns an error matching ErrAuthenticationFailed when the
	// credentials are rejected. Other errors indicate backend failures.
	Authenticate(ctx context.Context, username, password string) (model.Identity, error)
}
