// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const secretKeyBytes = 32

// Authenticator backends selectable with USERPANEL_AUTHENTICATOR.
const (
	AuthenticatorDirectory = "directory"
	AuthenticatorStatic    = "static"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	SecretKey       []byte // nil when USERPANEL_SECRET_KEY is unset
	Credentials     string // "user:password,user:password"
	CredentialsFile string
	NameColumn      string
	Note            string
	SessionTTL      time.Duration
	SecureCookies   bool
	Authenticator   string // AuthenticatorDirectory or AuthenticatorStatic
}

// HasSecretKey reports whether a persistent secret was configured. Without
// one, stored credentials are unavailable and sessions do not survive restarts.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != nil
}

// LoadDotEnv reads KEY=value pairs from the given files (".env" when none are
// given) into the process environment. Variables that are already set win.
// Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: USERPANEL_LISTEN_ADDR (127.0.0.1:8080),
// USERPANEL_DB_PATH (userpanel.db), USERPANEL_NAME_COLUMN (username),
// USERPANEL_SESSION_TTL (12h), USERPANEL_AUTHENTICATOR (directory).
// USERPANEL_SECRET_KEY must be 64 hex characters.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("USERPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "userpanel.db"
	if v, ok := os.LookupEnv("USERPANEL_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("USERPANEL_SECRET_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("USERPANEL_SECRET_KEY is not valid hex: %w", err)
		}
		if len(decoded) != secretKeyBytes {
			return nil, fmt.Errorf("USERPANEL_SECRET_KEY must be %d hex characters, got %d", secretKeyBytes*2, len(v))
		}
		secretKey = decoded
	}

	nameColumn := "username"
	if v, ok := os.LookupEnv("USERPANEL_NAME_COLUMN"); ok && v != "" {
		nameColumn = v
	}

	sessionTTL := 12 * time.Hour
	if v, ok := os.LookupEnv("USERPANEL_SESSION_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("USERPANEL_SESSION_TTL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("USERPANEL_SESSION_TTL must be positive, got %s", parsed)
		}
		sessionTTL = parsed
	}

	var secureCookies bool
	if v, ok := os.LookupEnv("USERPANEL_SECURE_COOKIES"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("USERPANEL_SECURE_COOKIES has invalid boolean %q: %w", v, err)
		}
		secureCookies = parsed
	}

	authenticator := AuthenticatorDirectory
	if v, ok := os.LookupEnv("USERPANEL_AUTHENTICATOR"); ok && v != "" {
		switch v {
		case AuthenticatorDirectory, AuthenticatorStatic:
			authenticator = v
		default:
			return nil, fmt.Errorf("USERPANEL_AUTHENTICATOR must be %q or %q, got %q", AuthenticatorDirectory, AuthenticatorStatic, v)
		}
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		SecretKey:       secretKey,
		Credentials:     os.Getenv("USERPANEL_CREDENTIALS"),
		CredentialsFile: os.Getenv("USERPANEL_CREDENTIALS_FILE"),
		NameColumn:      nameColumn,
		Note:            os.Getenv("USERPANEL_NOTE"),
		SessionTTL:      sessionTTL,
		SecureCookies:   secureCookies,
		Authenticator:   authenticator,
	}, nil
}
