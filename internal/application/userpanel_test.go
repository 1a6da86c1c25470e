package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockProvider struct {
	order     []string
	passwords map[string]string
	lookups   int
}

func newMockProvider(pairs ...string) *mockProvider {
	p := &mockProvider{passwords: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.order = append(p.order, pairs[i])
		p.passwords[pairs[i]] = pairs[i+1]
	}
	return p
}

func (m *mockProvider) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, u := range m.order {
			if !yield(u, m.passwords[u]) {
				return
			}
		}
	}
}

func (m *mockProvider) Lookup(username string) (string, bool) {
	m.lookups++
	pw, ok := m.passwords[username]
	return pw, ok
}

type mockAuthenticator struct {
	users map[string]string
	calls int
}

func (m *mockAuthenticator) Authenticate(_ context.Context, username, password string) (model.Identity, error) {
	m.calls++
	if pw, ok := m.users[username]; !ok || pw != password {
		return nil, &driven.AuthenticationError{Reason: "The password is incorrect."}
	}
	return &model.User{UserID: username, Attributes: map[string]string{"username": username}}, nil
}

// fakeSession implements the Unauthenticated <-> Authenticated state machine.
type fakeSession struct {
	identity      model.Identity
	loggedIn      bool
	authenticator driven.Authenticator
	setAuthCalls  int
	logoutCalls   int
	loginErr      error
}

func (s *fakeSession) IsLoggedIn() bool         { return s.loggedIn }
func (s *fakeSession) Identity() model.Identity { return s.identity }
func (s *fakeSession) SetAuthenticator(a driven.Authenticator) {
	s.setAuthCalls++
	s.authenticator = a
}

func (s *fakeSession) Login(ctx context.Context, username, password string) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	if s.authenticator == nil {
		return driven.ErrNoAuthenticator
	}
	id, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	s.identity = id
	s.loggedIn = true
	return nil
}

func (s *fakeSession) Logout(_ context.Context, clearIdentity bool) error {
	s.logoutCalls++
	s.loggedIn = false
	if clearIdentity {
		s.identity = nil
	}
	return nil
}

type mockView struct {
	reloads int
	flashes []model.Flash
	pending []model.Flash
}

func (v *mockView) Reload() { v.reloads++ }
func (v *mockView) Flash(message string, kind model.FlashKind) {
	v.flashes = append(v.flashes, model.Flash{Message: message, Kind: kind})
}
func (v *mockView) Flashes() []model.Flash         { return v.pending }
func (v *mockView) ActionURL(action string) string { return "/_debugbar/" + action }
func (v *mockView) CSRFToken() string              { return "csrf-test" }

type mockRenderer struct {
	name string
	data any
	err  error
}

func (r *mockRenderer) Render(_ context.Context, w io.Writer, name string, data any) error {
	r.name = name
	r.data = data
	if r.err != nil {
		return r.err
	}
	switch d := data.(type) {
	case application.TabData:
		if d.LoggedIn {
			_, err := fmt.Fprintf(w, "Logged as %s", d.Username)
			return err
		}
		_, err := io.WriteString(w, "Guest")
		return err
	default:
		_, err := io.WriteString(w, "<panel>")
		return err
	}
}

// --- Test helpers ---

type fixture struct {
	panel    *application.UserPanel
	provider *mockProvider
	auth     *mockAuthenticator
	session  *fakeSession
	view     *mockView
	renderer *mockRenderer
}

// newFixture wires the alice/bob scenario. The authenticator accepts the
// provider's passwords unless overridden by authUsers.
func newFixture(t *testing.T, authUsers map[string]string) *fixture {
	t.Helper()

	provider := newMockProvider("alice", "pw1", "bob", "pw2")
	if authUsers == nil {
		authUsers = map[string]string{"alice": "pw1", "bob": "pw2"}
	}
	f := &fixture{
		provider: provider,
		auth:     &mockAuthenticator{users: authUsers},
		session:  &fakeSession{},
		view:     &mockView{},
		renderer: &mockRenderer{},
	}

	panel, err := application.NewUserPanel(f.view, f.session, f.provider, f.auth, f.renderer, nil)
	require.NoError(t, err)
	f.panel = panel
	return f
}

func loggedInAs(username string, attrs map[string]string) *fakeSession {
	return &fakeSession{
		loggedIn: true,
		identity: &model.User{UserID: username, Attributes: attrs},
	}
}

// --- Tests ---

func TestNewUserPanel_RequiresView(t *testing.T) {
	panel, err := application.NewUserPanel(nil, &fakeSession{}, newMockProvider(), &mockAuthenticator{}, &mockRenderer{}, nil)

	require.ErrorIs(t, err, application.ErrNoViewContext)
	assert.Nil(t, panel)
}

func TestUserPanel_ID(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, "userpanel", f.panel.ID())
}

func TestUserPanel_BuildCredentialOptions(t *testing.T) {
	f := newFixture(t, nil)

	options := f.panel.BuildCredentialOptions()

	assert.Equal(t, []model.Option{
		{Value: "alice", Label: "alice"},
		{Value: "bob", Label: "bob"},
		{Value: "__guest", Label: "guest"},
	}, options)
}

func TestUserPanel_BuildCredentialOptionsNeverContainsPasswords(t *testing.T) {
	f := newFixture(t, nil)
	f.panel.AddCredentials("carol", "fallback-secret")

	options := f.panel.BuildCredentialOptions()

	guests := 0
	for _, o := range options {
		for _, secret := range []string{"pw1", "pw2", "fallback-secret"} {
			assert.NotEqual(t, secret, o.Value)
			assert.NotEqual(t, secret, o.Label)
		}
		if o.Value == model.GuestMarker {
			guests++
		}
	}
	assert.Equal(t, 1, guests)
	assert.Equal(t, model.GuestMarker, options[len(options)-1].Value, "guest option is last")
}

func TestUserPanel_BuildCredentialOptionsFallbackAfterProvider(t *testing.T) {
	f := newFixture(t, nil)
	f.panel.AddCredentials("carol", "c").AddCredentials("alice", "shadowed")

	options := f.panel.BuildCredentialOptions()

	values := make([]string, 0, len(options))
	for _, o := range options {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"alice", "bob", "carol", "__guest"}, values)
}

func TestUserPanel_BuildCredentialOptionsReservesGuestMarker(t *testing.T) {
	provider := newMockProvider("alice", "pw1", model.GuestMarker, "pw2")
	panel, err := application.NewUserPanel(&mockView{}, &fakeSession{}, provider, &mockAuthenticator{}, &mockRenderer{}, nil)
	require.NoError(t, err)
	panel.AddCredentials(model.GuestMarker, "pw3")

	assert.Equal(t, []model.Option{
		{Value: "alice", Label: "alice"},
		{Value: model.GuestMarker, Label: model.GuestLabel},
	}, panel.BuildCredentialOptions())
}

func TestUserPanel_BuildCredentialOptionsWithoutProvider(t *testing.T) {
	panel, err := application.NewUserPanel(&mockView{}, &fakeSession{}, nil, &mockAuthenticator{}, &mockRenderer{}, nil)
	require.NoError(t, err)

	panel.AddCredentials("dave", "d")

	assert.Equal(t, []model.Option{
		{Value: "dave", Label: "dave"},
		{Value: "__guest", Label: "guest"},
	}, panel.BuildCredentialOptions())
}

func TestUserPanel_SubmitKnownUserLogsIn(t *testing.T) {
	f := newFixture(t, nil)

	err := f.panel.HandleLoginSubmit(context.Background(), "alice")

	require.NoError(t, err)
	assert.True(t, f.session.IsLoggedIn())
	assert.Equal(t, "alice", f.session.Identity().ID())
	assert.Same(t, f.auth, f.session.authenticator)
	assert.Equal(t, 1, f.view.reloads)
	assert.Empty(t, f.view.flashes)
}

func TestUserPanel_SubmitSwitchesBetweenUsers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.panel.HandleLoginSubmit(ctx, "alice"))
	require.NoError(t, f.panel.HandleLoginSubmit(ctx, "bob"))

	assert.True(t, f.session.IsLoggedIn())
	assert.Equal(t, "bob", f.session.Identity().ID())
	assert.Equal(t, 2, f.view.reloads)
}

func TestUserPanel_SubmitGuestLogsOut(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.panel.HandleLoginSubmit(ctx, "alice"))
	f.auth.calls = 0
	f.session.setAuthCalls = 0

	err := f.panel.HandleLoginSubmit(ctx, model.GuestMarker)

	require.NoError(t, err)
	assert.False(t, f.session.IsLoggedIn())
	assert.Nil(t, f.session.Identity(), "guest logout clears the identity")
	assert.Equal(t, 1, f.session.logoutCalls)
	assert.Equal(t, 0, f.auth.calls, "authenticator is never called for guest")
	assert.Equal(t, 0, f.session.setAuthCalls)
	assert.Equal(t, 2, f.view.reloads)
}

func TestUserPanel_SubmitGuestWhenAlreadyGuest(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.panel.HandleLoginSubmit(context.Background(), model.GuestMarker))

	assert.False(t, f.session.IsLoggedIn())
	assert.Equal(t, 1, f.view.reloads)
}

func TestUserPanel_SubmitWrongPasswordFlashesOnce(t *testing.T) {
	f := newFixture(t, map[string]string{"alice": "rotated", "bob": "pw2"})
	ctx := context.Background()
	require.NoError(t, f.panel.HandleLoginSubmit(ctx, "bob"))

	err := f.panel.HandleLoginSubmit(ctx, "alice")

	require.NoError(t, err, "authentication failures are recovered")
	assert.True(t, f.session.IsLoggedIn())
	assert.Equal(t, "bob", f.session.Identity().ID(), "state unchanged")
	require.Len(t, f.view.flashes, 1)
	assert.Equal(t, model.FlashError, f.view.flashes[0].Kind)
	assert.Equal(t, "The password is incorrect.", f.view.flashes[0].Message)
	assert.Equal(t, 2, f.view.reloads, "form resets after failure")
}

func TestUserPanel_SubmitLooksUpPasswordFreshly(t *testing.T) {
	f := newFixture(t, nil)
	f.panel.BuildCredentialOptions()

	require.NoError(t, f.panel.HandleLoginSubmit(context.Background(), "alice"))

	assert.Equal(t, 1, f.provider.lookups)
	assert.True(t, f.session.IsLoggedIn())
}

func TestUserPanel_SubmitUsesFallbackCredentials(t *testing.T) {
	f := newFixture(t, map[string]string{"carol": "c-pass"})
	f.panel.AddCredentials("carol", "c-pass")

	require.NoError(t, f.panel.HandleLoginSubmit(context.Background(), "carol"))

	assert.Equal(t, "carol", f.session.Identity().ID())
}

func TestUserPanel_AddCredentialsLastWriteWins(t *testing.T) {
	f := newFixture(t, map[string]string{"carol": "new"})
	f.panel.AddCredentials("carol", "old").AddCredentials("carol", "new")

	options := f.panel.BuildCredentialOptions()
	require.NoError(t, f.panel.HandleLoginSubmit(context.Background(), "carol"))

	assert.Len(t, options, 4)
	assert.True(t, f.session.IsLoggedIn())
	assert.Empty(t, f.view.flashes)
}

func TestUserPanel_SubmitUnknownUser(t *testing.T) {
	f := newFixture(t, nil)

	err := f.panel.HandleLoginSubmit(context.Background(), "mallory")

	require.ErrorIs(t, err, application.ErrUnknownCredentials)
	assert.Equal(t, 0, f.auth.calls)
	assert.Equal(t, 0, f.view.reloads)
	assert.False(t, f.session.IsLoggedIn())
}

func TestUserPanel_SubmitBackendErrorPropagates(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loginErr = errors.New("session store unavailable")

	err := f.panel.HandleLoginSubmit(context.Background(), "alice")

	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrAuthenticationFailed)
	assert.Empty(t, f.view.flashes)
	assert.Equal(t, 0, f.view.reloads)
}

func TestUserPanel_UsernameFromAttributeBag(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loggedIn = true
	f.session.identity = &model.User{UserID: "7", Attributes: map[string]string{"username": "Alice", "email": "alice@example.com"}}

	name, ok := f.panel.Username()
	require.True(t, ok)
	assert.Equal(t, "Alice", name)
}

func TestUserPanel_UsernameWithoutAttributeBag(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loggedIn = true
	f.session.identity = model.BareIdentity("7")

	name, ok := f.panel.Username()
	assert.False(t, ok)
	assert.Equal(t, "", name)
}

func TestUserPanel_UsernameWithoutIdentity(t *testing.T) {
	f := newFixture(t, nil)

	_, ok := f.panel.Username()
	assert.False(t, ok)
}

func TestUserPanel_SetNameColumn(t *testing.T) {
	f := newFixture(t, nil)
	f.session.identity = &model.User{UserID: "7", Attributes: map[string]string{"username": "alice", "email": "alice@example.com"}}

	same := f.panel.SetNameColumn("email")

	assert.Same(t, f.panel, same)
	name, ok := f.panel.Username()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", name)
}

func TestUserPanel_RenderTabGuest(t *testing.T) {
	f := newFixture(t, nil)

	html, err := f.panel.RenderTab(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Guest", html)
	assert.Equal(t, application.TabTemplate, f.renderer.name)
}

func TestUserPanel_RenderTabLoggedIn(t *testing.T) {
	f := newFixture(t, nil)
	f.session = loggedInAs("alice", map[string]string{"username": "Alice"})
	panel, err := application.NewUserPanel(f.view, f.session, f.provider, f.auth, f.renderer, nil)
	require.NoError(t, err)

	html, err := panel.RenderTab(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Logged as Alice", html)
}

func TestUserPanel_RenderTabFallsBackToIdentityID(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loggedIn = true
	f.session.identity = model.BareIdentity("svc-account")

	html, err := f.panel.RenderTab(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Logged as svc-account", html)
}

func TestUserPanel_RenderPanelGuestSelection(t *testing.T) {
	f := newFixture(t, nil)
	f.view.pending = []model.Flash{{Message: "hello", Kind: model.FlashInfo}}
	f.panel.SetNote("**dev only**")

	_, err := f.panel.RenderPanel(context.Background())
	require.NoError(t, err)

	data, ok := f.renderer.data.(application.PanelData)
	require.True(t, ok)
	assert.Equal(t, application.PanelTemplate, f.renderer.name)
	assert.False(t, data.LoggedIn)
	assert.Equal(t, model.GuestMarker, data.Selected)
	assert.Len(t, data.Options, 3)
	assert.Equal(t, "username", data.NameColumn)
	assert.Equal(t, "/_debugbar/userpanel/login", data.FormAction)
	assert.Equal(t, "csrf-test", data.CSRFToken)
	assert.Equal(t, "**dev only**", data.Note)
	assert.Equal(t, f.view.pending, data.Flashes)
}

func TestUserPanel_RenderPanelSelectsLowercasedUsername(t *testing.T) {
	f := newFixture(t, nil)
	f.session.loggedIn = true
	f.session.identity = &model.User{
		UserID:     "alice",
		Roles:      []string{"admin"},
		Attributes: map[string]string{"username": "Alice"},
	}

	_, err := f.panel.RenderPanel(context.Background())
	require.NoError(t, err)

	data := f.renderer.data.(application.PanelData)
	assert.True(t, data.LoggedIn)
	assert.Equal(t, "alice", data.Selected)
	assert.Equal(t, "Alice", data.Username)
	assert.Equal(t, "alice", data.IdentityID)
	assert.Equal(t, []string{"admin"}, data.Roles)
	assert.Equal(t, map[string]string{"username": "Alice"}, data.Data)
}

func TestUserPanel_RenderErrorPropagates(t *testing.T) {
	f := newFixture(t, nil)
	f.renderer.err = errors.New("template broken")

	_, err := f.panel.RenderPanel(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "template broken")
}
