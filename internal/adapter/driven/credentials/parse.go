package credentials

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// ParseList parses the compact "user:password,user2:password2" encoding used
// by USERPANEL_CREDENTIALS. Whitespace around entries is ignored; the first
// colon separates username from password so passwords may contain colons.
func ParseList(s string) (*Array, error) {
	var entries []model.Credential
	for i, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		username, password, ok := strings.Cut(raw, ":")
		username = strings.TrimSpace(username)
		if !ok || username == "" {
			return nil, fmt.Errorf("credential entry %d: expected user:password, got %q", i+1, raw)
		}
		entries = append(entries, model.Credential{Username: username, Password: password})
	}
	return NewArray(entries...), nil
}
