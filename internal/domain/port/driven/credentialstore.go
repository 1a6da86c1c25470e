package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// USERPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set USERPANEL_SECRET_KEY")

// CredentialStore defines the driven port for encrypted persistence of the
// panel's quick-switch credentials. The adapter layer is responsible for
// encryption/decryption; this interface operates on plaintext values at the
// domain boundary.
type CredentialStore interface {
	// Set stores or replaces the password for username. New usernames are
	// appended after existing ones. Returns ErrEncryptionKeyNotSet if the
	// adapter was constructed without an encryption key.
	Set(ctx context.Context, username, password string) error

	// List returns all stored credentials in insertion order with decrypted
	// passwords. Returns ErrEncryptionKeyNotSet if the adapter was
	// constructed without an encryption key.
	List(ctx context.Context) ([]model.StoredCredential, error)

	// Delete removes the credential for username.
	Delete(ctx context.Context, username string) error
}
