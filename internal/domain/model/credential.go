package model

import "time"

// Credential is one username/password pair offered by the user panel's
// quick-switch form. Password never leaves the server.
type Credential struct {
	Username string
	Password string
}

// StoredCredential is a Credential as persisted by a CredentialStore, with
// its ordering position and last modification time.
type StoredCredential struct {
	ID        int64
	Credential
	Position  int
	UpdatedAt time.Time
}
