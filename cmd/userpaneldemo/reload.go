package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/config"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// reloadOnHangup re-reads the credential file and store on SIGHUP and swaps
// the result into source. users is reseeded when set. A failed reload keeps
// the previous credentials.
func reloadOnHangup(
	ctx context.Context,
	cfg *config.Config,
	store credentialStore,
	users driven.UserDirectory,
	source *application.CredentialSource,
) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			provider, err := loadCredentials(ctx, cfg, store)
			if err != nil {
				slog.Error("credential reload failed", "error", err)
				continue
			}
			if users != nil {
				if err := seedDirectory(ctx, users, provider); err != nil {
					slog.Error("directory reseed failed", "error", err)
					continue
				}
			}
			source.Replace(provider)
			slog.Info("credentials reloaded", "count", provider.Len(), "usernames", provider.Usernames())
		}
	}
}
