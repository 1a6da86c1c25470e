package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/userpanel/internal/application"
)

func usernamesOf(s *application.CredentialSource) []string {
	var names []string
	for u := range s.All() {
		names = append(names, u)
	}
	return names
}

func TestCredentialSource_DelegatesToInitialProvider(t *testing.T) {
	provider := newMockProvider("alice", "pw1", "bob", "pw2")
	source := application.NewCredentialSource(provider)

	assert.Same(t, provider, source.Get())
	assert.Equal(t, []string{"alice", "bob"}, usernamesOf(source))

	pw, ok := source.Lookup("bob")
	require.True(t, ok)
	assert.Equal(t, "pw2", pw)
}

func TestCredentialSource_ReplaceSwapsProvider(t *testing.T) {
	source := application.NewCredentialSource(newMockProvider("alice", "pw1"))

	source.Replace(newMockProvider("carol", "pw3"))

	assert.Equal(t, []string{"carol"}, usernamesOf(source))
	_, ok := source.Lookup("alice")
	assert.False(t, ok)
}

func TestCredentialSource_NilProviderIsEmpty(t *testing.T) {
	source := application.NewCredentialSource(nil)

	assert.Empty(t, usernamesOf(source))
	_, ok := source.Lookup("alice")
	assert.False(t, ok)
}

func TestCredentialSource_AllStopsEarly(t *testing.T) {
	source := application.NewCredentialSource(newMockProvider("a", "1", "b", "2", "c", "3"))

	var seen []string
	for u := range source.All() {
		seen = append(seen, u)
		if u == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestCredentialSource_WorksAsPanelProvider(t *testing.T) {
	source := application.NewCredentialSource(newMockProvider("alice", "pw1"))
	f := newFixture(t, map[string]string{"alice": "pw1", "carol": "pw3"})
	panel, err := application.NewUserPanel(f.view, f.session, source, f.auth, f.renderer, nil)
	require.NoError(t, err)

	source.Replace(newMockProvider("carol", "pw3"))

	require.NoError(t, panel.HandleLoginSubmit(t.Context(), "carol"))
	assert.True(t, f.session.IsLoggedIn())
}

func TestCredentialSource_ConcurrentGetReplaceSafety(t *testing.T) {
	first := newMockProvider("alice", "pw1")
	second := newMockProvider("bob", "pw2")
	source := application.NewCredentialSource(first)

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	// Half the goroutines read, half write.
	for range goroutines {
		go func() {
			defer wg.Done()
			names := usernamesOf(source)
			// Should be either provider, never empty.
			assert.Len(t, names, 1)
		}()
		go func() {
			defer wg.Done()
			source.Replace(second)
		}()
	}

	wg.Wait()

	assert.Same(t, second, source.Get())
}
