package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

const (
	// UserPanelID identifies the user panel on the debug bar.
	UserPanelID = "userpanel"

	// DefaultNameColumn is the identity attribute shown as the username.
	DefaultNameColumn = "username"

	// Template identifiers handed to the Renderer.
	TabTemplate   = "userpanel/tab"
	PanelTemplate = "userpanel/panel"

	// LoginAction is the ViewContext action the login form posts to.
	LoginAction = "userpanel/login"
)

var (
	// ErrNoViewContext is returned by NewUserPanel when no active view is
	// available. The panel cannot be bound later.
	ErrNoViewContext = errors.New("user panel must be created inside an active request view")

	// ErrUnknownCredentials is returned by HandleLoginSubmit when the
	// submitted username is not one of the configured credentials.
	ErrUnknownCredentials = errors.New("no credentials configured for user")
)

// TabData is the view model handed to the tab template.
type TabData struct {
	LoggedIn bool
	Username string
}

// PanelData is the view model handed to the panel template. It never
// contains passwords.
type PanelData struct {
	LoggedIn   bool
	IdentityID string
	Roles      []string
	Data       map[string]string
	NameColumn string
	Username   string
	Options    []model.Option
	Selected   string
	Flashes    []model.Flash
	FormAction string
	CSRFToken  string
	Note       string
}

// UserPanel is the debug-bar panel showing the current user and offering a
// quick-switch login form. One instance serves exactly one request.
type UserPanel struct {
	view          driven.ViewContext
	session       driven.UserSession
	provider      driven.CredentialsProvider
	authenticator driven.Authenticator
	renderer      driven.Renderer
	logger        *slog.Logger

	nameColumn string
	note       string

	// fallback holds entries added via AddCredentials, consulted after provider.
	fallback []model.Credential

	// usernames is the username -> username lookup table cached by
	// BuildCredentialOptions. It never holds passwords.
	usernames map[string]string
}

// NewUserPanel creates a UserPanel bound to view. It returns ErrNoViewContext
// when view is nil. provider may be nil when only AddCredentials is used.
func NewUserPanel(
	view driven.ViewContext,
	session driven.UserSession,
	provider driven.CredentialsProvider,
	authenticator driven.Authenticator,
	renderer driven.Renderer,
	logger *slog.Logger,
) (*UserPanel, error) {
	if view == nil {
		return nil, ErrNoViewContext
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserPanel{
		view:          view,
		session:       session,
		provider:      provider,
		authenticator: authenticator,
		renderer:      renderer,
		logger:        logger,
		nameColumn:    DefaultNameColumn,
	}, nil
}

// ID returns the stable debug-bar panel identifier.
func (p *UserPanel) ID() string {
	return UserPanelID
}

// RenderTab renders the short tab label: "Logged as <username>" or "Guest".
func (p *UserPanel) RenderTab(ctx context.Context) (string, error) {
	data := TabData{LoggedIn: p.session.IsLoggedIn()}
	if data.LoggedIn {
		data.Username = p.displayName()
	}
	return p.render(ctx, TabTemplate, data)
}

// RenderPanel renders the panel body including the quick-switch form.
func (p *UserPanel) RenderPanel(ctx context.Context) (string, error) {
	loggedIn := p.session.IsLoggedIn()
	username, _ := p.Username()

	selected := model.GuestMarker
	if loggedIn {
		selected = strings.ToLower(username)
	}

	data := PanelData{
		LoggedIn:   loggedIn,
		Data:       model.DataOf(p.session.Identity()),
		NameColumn: p.nameColumn,
		Username:   username,
		Options:    p.BuildCredentialOptions(),
		Selected:   selected,
		Flashes:    p.view.Flashes(),
		FormAction: p.view.ActionURL(LoginAction),
		CSRFToken:  p.view.CSRFToken(),
		Note:       p.note,
	}
	if id := p.session.Identity(); id != nil {
		data.IdentityID = id.ID()
		if u, ok := id.(*model.User); ok {
			data.Roles = u.Roles
		}
	}

	return p.render(ctx, PanelTemplate, data)
}

// Username returns the configured name column from the current identity's
// attribute bag. ok is false when the identity is missing, has no attribute
// bag, or lacks the column.
func (p *UserPanel) Username() (string, bool) {
	data := model.DataOf(p.session.Identity())
	v, ok := data[p.nameColumn]
	return v, ok
}

// AddCredentials adds or overwrites one entry of the panel's local fallback
// credential set.
func (p *UserPanel) AddCredentials(username, password string) *UserPanel {
	for i := range p.fallback {
		if p.fallback[i].Username == username {
			p.fallback[i].Password = password
			return p
		}
	}
	p.fallback = append(p.fallback, model.Credential{Username: username, Password: password})
	p.usernames = nil
	return p
}

// SetNameColumn changes which identity attribute is treated as the username.
func (p *UserPanel) SetNameColumn(column string) *UserPanel {
	p.nameColumn = column
	return p
}

// SetNote sets markdown help text shown below the form.
func (p *UserPanel) SetNote(markdown string) *UserPanel {
	p.note = markdown
	return p
}

// BuildCredentialOptions returns one option per known username (provider
// entries first, then fallback entries) followed by a single guest option.
// The username -> username table is cached for submit validation.
func (p *UserPanel) BuildCredentialOptions() []model.Option {
	known := p.knownUsernames()

	options := make([]model.Option, 0, len(known)+1)
	usernames := make(map[string]string, len(known)+1)
	for _, username := range known {
		options = append(options, model.Option{Value: username, Label: username})
		usernames[username] = username
	}
	options = append(options, model.Option{Value: model.GuestMarker, Label: model.GuestLabel})
	usernames[model.GuestMarker] = model.GuestLabel

	p.usernames = usernames
	return options
}

// HandleLoginSubmit switches the session to selected. The guest marker logs
// out; any other username is logged in with its configured password.
// Rejected credentials are reported through a flash message and are not
// returned as an error. The view is reloaded in both cases.
func (p *UserPanel) HandleLoginSubmit(ctx context.Context, selected string) error {
	if selected == model.GuestMarker {
		if err := p.session.Logout(ctx, true); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		p.logger.Info("user panel switched to guest")
		p.view.Reload()
		return nil
	}

	if p.usernames == nil {
		p.BuildCredentialOptions()
	}
	if _, ok := p.usernames[selected]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCredentials, selected)
	}

	password, ok := p.lookupPassword(selected)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCredentials, selected)
	}

	p.session.SetAuthenticator(p.authenticator)
	if err := p.session.Login(ctx, selected, password); err != nil {
		if !errors.Is(err, driven.ErrAuthenticationFailed) {
			return fmt.Errorf("login %q: %w", selected, err)
		}
		p.logger.Warn("user panel login rejected", "username", selected, "error", err)
		p.view.Flash(err.Error(), model.FlashError)
		p.view.Reload()
		return nil
	}

	p.logger.Info("user panel switched user", "username", selected)
	p.view.Reload()
	return nil
}

// lookupPassword resolves the password freshly from the provider, then from
// the fallback set. The option cache is never consulted for passwords.
func (p *UserPanel) lookupPassword(username string) (string, bool) {
	if p.provider != nil {
		if pw, ok := p.provider.Lookup(username); ok {
			return pw, true
		}
	}
	for _, c := range p.fallback {
		if c.Username == username {
			return c.Password, true
		}
	}
	return "", false
}

// knownUsernames lists provider usernames in order, then fallback-only ones.
// The guest marker is reserved for the trailing guest option.
func (p *UserPanel) knownUsernames() []string {
	seen := map[string]struct{}{model.GuestMarker: {}}
	var names []string
	add := func(username string) {
		if _, dup := seen[username]; dup {
			return
		}
		seen[username] = struct{}{}
		names = append(names, username)
	}

	if p.provider != nil {
		for username := range p.provider.All() {
			add(username)
		}
	}
	for _, c := range p.fallback {
		add(c.Username)
	}
	return names
}

// displayName falls back to the identity ID when the name column is absent.
func (p *UserPanel) displayName() string {
	if name, ok := p.Username(); ok {
		return name
	}
	if id := p.session.Identity(); id != nil {
		return id.ID()
	}
	return ""
}

func (p *UserPanel) render(ctx context.Context, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := p.renderer.Render(ctx, &buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
