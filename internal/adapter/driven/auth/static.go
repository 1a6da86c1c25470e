// Package auth provides Authenticator implementations for the host session:
// a static in-memory table and a directory-backed verifier for bcrypt and
// crypt(3) password hashes.
package auth

import (
	"context"
	"crypto/subtle"
	"maps"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Rejection reasons shown to the developer through the panel's flash message.
const (
	reasonUnknownUser   = "The username is incorrect."
	reasonWrongPassword = "The password is incorrect."
)

// StaticAccount is one account known to a StaticAuthenticator.
type StaticAccount struct {
	Password   string
	Roles      []string
	Attributes map[string]string
}

// Compile-time interface satisfaction check.
var _ driven.Authenticator = (*StaticAuthenticator)(nil)

// StaticAuthenticator validates credentials against a fixed in-memory table
// or a CredentialsProvider. It is meant for development hosts only.
type StaticAuthenticator struct {
	accounts map[string]StaticAccount
	provider driven.CredentialsProvider
}

// NewStaticAuthenticator creates an authenticator over accounts keyed by username.
func NewStaticAuthenticator(accounts map[string]StaticAccount) *StaticAuthenticator {
	return &StaticAuthenticator{accounts: maps.Clone(accounts)}
}

// NewStaticAuthenticatorFromPasswords creates an authenticator accepting
// exactly the given username -> password pairs.
func NewStaticAuthenticatorFromPasswords(passwords map[string]string) *StaticAuthenticator {
	accounts := make(map[string]StaticAccount, len(passwords))
	for u, p := range passwords {
		accounts[u] = StaticAccount{Password: p}
	}
	return &StaticAuthenticator{accounts: accounts}
}

// NewStaticAuthenticatorFromProvider creates an authenticator accepting the
// pairs provider holds at authentication time, so a provider that is swapped
// or reloaded is picked up without rebuilding the authenticator.
func NewStaticAuthenticatorFromProvider(provider driven.CredentialsProvider) *StaticAuthenticator {
	return &StaticAuthenticator{provider: provider}
}

// Authenticate returns a *model.User whose attribute bag always carries the
// username under "username".
func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) (model.Identity, error) {
	acc, ok := a.account(username)
	if !ok {
		return nil, &driven.AuthenticationError{Reason: reasonUnknownUser}
	}
	if subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 {
		return nil, &driven.AuthenticationError{Reason: reasonWrongPassword}
	}

	return model.DirectoryUser{
		Username:   username,
		Roles:      acc.Roles,
		Attributes: acc.Attributes,
	}.Identity(), nil
}

func (a *StaticAuthenticator) account(username string) (StaticAccount, bool) {
	if a.provider != nil {
		pw, ok := a.provider.Lookup(username)
		return StaticAccount{Password: pw}, ok
	}
	acc, ok := a.accounts[username]
	return acc, ok
}
