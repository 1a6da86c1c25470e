package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserDirectory = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserDirectory port interface.
// Roles and attributes are stored as JSON text columns.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts a user or replaces the hash, roles and attributes of an
// existing one with the same username.
func (r *UserRepo) Upsert(ctx context.Context, user model.DirectoryUser) error {
	roles, attrs, err := encodeUserColumns(user)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO users (username, password_hash, roles, attributes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			roles = excluded.roles,
			attributes = excluded.attributes`

	_, err = r.db.Writer.ExecContext(ctx, query, user.Username, user.PasswordHash, roles, attrs)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", user.Username, err)
	}
	return nil
}

// GetByUsername returns the user with the given username, or
// driven.ErrUserNotFound.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.DirectoryUser, error) {
	const query = `SELECT id, username, password_hash, roles, attributes, created_at FROM users WHERE username = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return user, nil
}

// ListAll returns all users ordered by username.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.DirectoryUser, error) {
	const query = `SELECT id, username, password_hash, roles, attributes, created_at FROM users ORDER BY username`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.DirectoryUser
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.DirectoryUser, error) {
	var user model.DirectoryUser
	var roles, attrs, createdAt string

	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &roles, &attrs, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(roles), &user.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if err := json.Unmarshal([]byte(attrs), &user.Attributes); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}

	var err error
	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &user, nil
}

func encodeUserColumns(user model.DirectoryUser) (string, string, error) {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	attrs := user.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	rb, err := json.Marshal(roles)
	if err != nil {
		return "", "", fmt.Errorf("encode roles: %w", err)
	}
	ab, err := json.Marshal(attrs)
	if err != nil {
		return "", "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(rb), string(ab), nil
}
