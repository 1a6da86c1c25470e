package driven

import "iter"

// CredentialsProvider is a read-only, ordered source of username/password
// pairs for the user panel. All yields a lazy, restartable, finite sequence
// in insertion order with unique usernames. Consumers re-query the provider
// instead of caching passwords, so an implementation may swap its entries
// between calls.
type CredentialsProvider interface {
	// All yields every username/password pair in insertion order.
	All() iter.Seq2[string, string]

	// Lookup returns the password for username and whether it exists.
	Lookup(username string) (string, bool)
}
