// Package credentials provides in-memory CredentialsProvider implementations
// for the user panel, plus loaders for the env-var and YAML encodings.
package credentials

import (
	"iter"
	"maps"
	"slices"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialsProvider = (*Array)(nil)

// Array is an ordered, immutable username -> password mapping. A duplicate
// username keeps the position of its first occurrence and the password of
// its last.
type Array struct {
	order     []string
	passwords map[string]string
}

// NewArray builds an Array from entries in the given order.
func NewArray(entries ...model.Credential) *Array {
	a := &Array{
		order:     make([]string, 0, len(entries)),
		passwords: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if _, seen := a.passwords[e.Username]; !seen {
			a.order = append(a.order, e.Username)
		}
		a.passwords[e.Username] = e.Password
	}
	return a
}

// FromMap builds an Array from m. Go maps have no order, so usernames are
// sorted to keep the form stable between requests.
func FromMap(m map[string]string) *Array {
	entries := make([]model.Credential, 0, len(m))
	for _, username := range slices.Sorted(maps.Keys(m)) {
		entries = append(entries, model.Credential{Username: username, Password: m[username]})
	}
	return NewArray(entries...)
}

// All yields every username/password pair in insertion order.
func (a *Array) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, username := range a.order {
			if !yield(username, a.passwords[username]) {
				return
			}
		}
	}
}

// Lookup returns the password for username.
func (a *Array) Lookup(username string) (string, bool) {
	pw, ok := a.passwords[username]
	return pw, ok
}

// Len returns the number of distinct usernames.
func (a *Array) Len() int {
	return len(a.order)
}

// Usernames returns the usernames in insertion order.
func (a *Array) Usernames() []string {
	return slices.Clone(a.order)
}

// Merge returns a new Array with the entries of every non-nil source in
// order. Later sources win on duplicate usernames.
func Merge(sources ...driven.CredentialsProvider) *Array {
	var entries []model.Credential
	for _, src := range sources {
		if src == nil {
			continue
		}
		for username, password := range src.All() {
			entries = append(entries, model.Credential{Username: username, Password: password})
		}
	}
	return NewArray(entries...)
}

// FromStored builds an Array from persisted credentials, keeping their order.
func FromStored(stored []model.StoredCredential) *Array {
	entries := make([]model.Credential, 0, len(stored))
	for _, s := range stored {
		entries = append(entries, s.Credential)
	}
	return NewArray(entries...)
}
