package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/userpanel/internal/adapter/driven/credentials"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Passwords are encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable credential storage (all reads and writes return ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Set stores or replaces the password for username. A new username is placed
// after all existing ones; a replaced one keeps its position.
func (r *CredentialRepo) Set(ctx context.Context, username, password string) error {
	encrypted, err := r.encrypt(password)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO panel_credentials (username, value, position, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM panel_credentials), CURRENT_TIMESTAMP)
		ON CONFLICT(username) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`
	_, err = r.db.Writer.ExecContext(ctx, query, username, encrypted)
	if err != nil {
		return fmt.Errorf("set credential %q: %w", username, err)
	}
	return nil
}

// List returns all stored credentials in insertion order with decrypted passwords.
func (r *CredentialRepo) List(ctx context.Context) ([]model.StoredCredential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, username, value, position, updated_at FROM panel_credentials ORDER BY position, id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.StoredCredential
	for rows.Next() {
		var cred model.StoredCredential
		var encrypted string
		var updatedAt string
		if err := rows.Scan(&cred.ID, &cred.Username, &encrypted, &cred.Position, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		plaintext, err := r.decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential %q: %w", cred.Username, err)
		}
		cred.Password = plaintext

		cred.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for credential %q: %w", cred.Username, err)
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Snapshot reads every stored credential into an immutable in-memory provider.
// Later writes to the store are not reflected in the returned provider.
func (r *CredentialRepo) Snapshot(ctx context.Context) (*credentials.Array, error) {
	stored, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return credentials.FromStored(stored), nil
}

// Delete removes the credential for username. Deleting a missing username is not an error.
func (r *CredentialRepo) Delete(ctx context.Context, username string) error {
	const query = `DELETE FROM panel_credentials WHERE username = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", username, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *CredentialRepo) gcm() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
