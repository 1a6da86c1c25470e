package model

import "maps"

// Identity is the authenticated principal attached to a session.
type Identity interface {
	ID() string
}

// AttributeBag is an optional capability of an Identity: identities that
// carry extra data (username, email, display name) expose it through Data.
// Callers must type-assert for it rather than assume its presence.
type AttributeBag interface {
	Data() map[string]string
}

// DataOf returns the attribute bag of id, or nil if id is nil or carries no
// attributes.
func DataOf(id Identity) map[string]string {
	if id == nil {
		return nil
	}
	bag, ok := id.(AttributeBag)
	if !ok {
		return nil
	}
	return bag.Data()
}

// User is the default Identity implementation. It carries roles and an
// attribute bag.
type User struct {
	UserID     string
	Roles      []string
	Attributes map[string]string
}

// Compile-time interface satisfaction checks.
var (
	_ Identity     = (*User)(nil)
	_ AttributeBag = (*User)(nil)
)

// ID returns the user's identifier.
func (u *User) ID() string { return u.UserID }

// Data returns a copy of the user's attributes.
func (u *User) Data() map[string]string {
	return maps.Clone(u.Attributes)
}

// BareIdentity is an Identity without an attribute bag.
type BareIdentity string

// ID returns the identity string.
func (b BareIdentity) ID() string { return string(b) }
