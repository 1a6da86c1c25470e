package application

import (
	"iter"
	"sync"

	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialsProvider = (*CredentialSource)(nil)

// CredentialSource enables runtime hot-swap of the credentials provider.
// It holds a mutex-protected reference to the current provider so a reloaded
// credential file takes effect without restarting the application. Panels
// built after Replace see the new entries.
type CredentialSource struct {
	mu       sync.RWMutex
	provider driven.CredentialsProvider
}

// NewCredentialSource creates a source with the given initial provider.
// provider may be nil, which behaves as an empty set.
func NewCredentialSource(provider driven.CredentialsProvider) *CredentialSource {
	return &CredentialSource{provider: provider}
}

// Get returns the current provider.
func (s *CredentialSource) Get() driven.CredentialsProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// Replace swaps the current provider. An iteration already in progress keeps
// reading the provider it started with.
func (s *CredentialSource) Replace(provider driven.CredentialsProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = provider
}

// All yields the entries of the provider current at the start of iteration.
func (s *CredentialSource) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		p := s.Get()
		if p == nil {
			return
		}
		for username, password := range p.All() {
			if !yield(username, password) {
				return
			}
		}
	}
}

// Lookup resolves username against the current provider.
func (s *CredentialSource) Lookup(username string) (string, bool) {
	p := s.Get()
	if p == nil {
		return "", false
	}
	return p.Lookup(username)
}
