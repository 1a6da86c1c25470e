package model

import "time"

// DirectoryUser is a user account record held by a UserDirectory. The
// PasswordHash is either a bcrypt hash or a crypt(3) string.
type DirectoryUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []string
	Attributes   map[string]string
	CreatedAt    time.Time
}

// Identity converts the directory record into a session identity. The
// username is always present in the attribute bag under "username".
func (u DirectoryUser) Identity() *User {
	attrs := make(map[string]string, len(u.Attributes)+1)
	for k, v := range u.Attributes {
		attrs[k] = v
	}
	attrs["username"] = u.Username

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	return &User{
		UserID:     u.Username,
		Roles:      roles,
		Attributes: attrs,
	}
}
