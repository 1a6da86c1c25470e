package web

import (
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/userpanel/internal/adapter/driving/debugbar"
	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// SessionLoader returns the session bound to the current request.
type SessionLoader func(w http.ResponseWriter, r *http.Request) driven.UserSession

// UserPanelOptions configures every panel built by a UserPanelFactory.
type UserPanelOptions struct {
	NameColumn string
	Note       string
	Fallback   []model.Credential

	// SecureCookies marks the flash and CSRF cookies as HTTPS-only.
	SecureCookies bool
}

// UserPanelFactory builds one request-scoped UserPanel per request.
type UserPanelFactory struct {
	sessions      SessionLoader
	provider      driven.CredentialsProvider
	authenticator driven.Authenticator
	renderer      driven.Renderer
	opts          UserPanelOptions
	logger        *slog.Logger
}

// NewUserPanelFactory creates a UserPanelFactory with all required dependencies.
func NewUserPanelFactory(
	sessions SessionLoader,
	provider driven.CredentialsProvider,
	authenticator driven.Authenticator,
	renderer driven.Renderer,
	opts UserPanelOptions,
	logger *slog.Logger,
) *UserPanelFactory {
	return &UserPanelFactory{
		sessions:      sessions,
		provider:      provider,
		authenticator: authenticator,
		renderer:      renderer,
		opts:          opts,
		logger:        logger,
	}
}

// New binds a fresh UserPanel to the request's view and session.
func (f *UserPanelFactory) New(w http.ResponseWriter, r *http.Request) (*application.UserPanel, error) {
	panel, err := application.NewUserPanel(
		NewView(w, r, f.opts.SecureCookies),
		f.sessions(w, r),
		f.provider,
		f.authenticator,
		f.renderer,
		f.logger,
	)
	if err != nil {
		return nil, err
	}

	if f.opts.NameColumn != "" {
		panel.SetNameColumn(f.opts.NameColumn)
	}
	panel.SetNote(f.opts.Note)
	for _, c := range f.opts.Fallback {
		panel.AddCredentials(c.Username, c.Password)
	}
	return panel, nil
}

// DebugBarFactory adapts the factory for registration on a debugbar.Bar.
func (f *UserPanelFactory) DebugBarFactory() debugbar.Factory {
	return func(w http.ResponseWriter, r *http.Request) (debugbar.Panel, error) {
		panel, err := f.New(w, r)
		if err != nil {
			return nil, err
		}
		return panel, nil
	}
}
