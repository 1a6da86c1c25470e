package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/userpanel/internal/adapter/driven/auth"
	"github.com/ericfisherdev/userpanel/internal/adapter/driven/credentials"
	"github.com/ericfisherdev/userpanel/internal/config"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// demoCredentials are used when no credentials are configured anywhere.
var demoCredentials = []model.Credential{
	{Username: "alice", Password: "alice"},
	{Username: "bob", Password: "bob"},
}

// credentialStore is the encrypted store loadCredentials reconciles and reads back.
type credentialStore interface {
	driven.CredentialStore
	Snapshot(ctx context.Context) (*credentials.Array, error)
}

// loadCredentials resolves the panel credentials. USERPANEL_CREDENTIALS wins
// over the YAML file. With a secret key set the configured entries replace
// the store contents, so they persist across restarts and removed usernames
// disappear; with nothing configured the stored entries are used as they are.
func loadCredentials(ctx context.Context, cfg *config.Config, store credentialStore) (*credentials.Array, error) {
	fromEnv, err := credentials.ParseList(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("USERPANEL_CREDENTIALS: %w", err)
	}

	fromFile := credentials.NewArray()
	if cfg.CredentialsFile != "" {
		fromFile, err = credentials.LoadYAML(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
	}

	configured := credentials.Merge(fromFile, fromEnv)
	if !cfg.HasSecretKey() {
		if configured.Len() == 0 {
			return demoUsers(), nil
		}
		return configured, nil
	}

	if configured.Len() > 0 {
		if err := syncStore(ctx, store, configured); err != nil {
			return nil, err
		}
	}

	stored, err := store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if stored.Len() == 0 {
		return demoUsers(), nil
	}
	return stored, nil
}

// syncStore makes the store hold exactly the configured entries. Usernames
// already stored keep their position.
func syncStore(ctx context.Context, store driven.CredentialStore, configured *credentials.Array) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if _, ok := configured.Lookup(c.Username); ok {
			continue
		}
		if err := store.Delete(ctx, c.Username); err != nil {
			return err
		}
		slog.Info("stored credential removed", "username", c.Username)
	}

	for username, password := range configured.All() {
		if err := store.Set(ctx, username, password); err != nil {
			return err
		}
	}
	return nil
}

func demoUsers() *credentials.Array {
	slog.Warn("no credentials configured, using demo users", "usernames", []string{"alice", "bob"})
	return credentials.NewArray(demoCredentials...)
}

// newAuthenticator returns the authenticator panel logins go through. With a
// directory it is seeded from provider first; without one the provider's
// pairs are accepted as they are.
func newAuthenticator(ctx context.Context, directory driven.UserDirectory, provider driven.CredentialsProvider) (driven.Authenticator, error) {
	if directory == nil {
		return auth.NewStaticAuthenticatorFromProvider(provider), nil
	}
	if err := seedDirectory(ctx, directory, provider); err != nil {
		return nil, err
	}
	return auth.NewDirectoryAuthenticator(directory), nil
}

// seedDirectory makes sure every panel credential can authenticate against
// the directory. Existing accounts keep their roles and attributes.
func seedDirectory(ctx context.Context, users driven.UserDirectory, provider driven.CredentialsProvider) error {
	for username, password := range provider.All() {
		user, err := users.GetByUsername(ctx, username)
		switch {
		case errors.Is(err, driven.ErrUserNotFound):
			user = &model.DirectoryUser{
				Username:   username,
				Roles:      []string{"developer"},
				Attributes: map[string]string{"email": username + "@example.test"},
			}
		case err != nil:
			return err
		}

		if ok, verr := auth.VerifyPassword(user.PasswordHash, password); verr == nil && ok {
			continue
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password for %q: %w", username, err)
		}
		user.PasswordHash = hash
		if err := users.Upsert(ctx, *user); err != nil {
			return err
		}
		slog.Info("directory user seeded", "username", username)
	}
	return nil
}
