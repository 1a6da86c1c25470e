package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// ErrUnsupportedHash is returned when a stored hash uses an unknown format.
var ErrUnsupportedHash = errors.New("unsupported password hash")

// Compile-time interface satisfaction check.
var _ driven.Authenticator = (*DirectoryAuthenticator)(nil)

// DirectoryAuthenticator verifies credentials against hashes held by a
// UserDirectory.
type DirectoryAuthenticator struct {
	directory driven.UserDirectory
}

// NewDirectoryAuthenticator creates an authenticator backed by directory.
func NewDirectoryAuthenticator(directory driven.UserDirectory) *DirectoryAuthenticator {
	return &DirectoryAuthenticator{directory: directory}
}

// Authenticate looks the user up and verifies password against the stored hash.
func (a *DirectoryAuthenticator) Authenticate(ctx context.Context, username, password string) (model.Identity, error) {
	user, err := a.directory.GetByUsername(ctx, username)
	if errors.Is(err, driven.ErrUserNotFound) {
		return nil, &driven.AuthenticationError{Reason: reasonUnknownUser}
	}
	if err != nil {
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		return nil, &driven.AuthenticationError{Reason: reasonWrongPassword}
	}

	return user.Identity(), nil
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches hash. Supported formats:
// bcrypt ($2a$, $2b$, $2y$), sha512-crypt ($6$), sha256-crypt ($5$) and
// md5-crypt ($1$).
func VerifyPassword(hash, password string) (bool, error) {
	if strings.HasPrefix(hash, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}

	var c crypt.Crypter
	switch {
	case strings.HasPrefix(hash, "$6$"):
		c = sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		c = sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		c = md5_crypt.New()
	default:
		return false, ErrUnsupportedHash
	}

	// Verify returns nil on success and ErrKeyMismatch otherwise.
	if err := c.Verify(hash, []byte(password)); err != nil {
		if errors.Is(err, crypt.ErrKeyMismatch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
