package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

func TestUserRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, model.DirectoryUser{
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
		Roles:        []string{"admin"},
		Attributes:   map[string]string{"email": "alice@example.com"},
	})
	require.NoError(t, err)

	user, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Equal(t, []string{"admin"}, user.Roles)
	assert.Equal(t, "alice@example.com", user.Attributes["email"])
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepo_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.DirectoryUser{Username: "bob", PasswordHash: "old"}))
	require.NoError(t, repo.Upsert(ctx, model.DirectoryUser{Username: "bob", PasswordHash: "new", Roles: []string{"editor"}}))

	user, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "new", user.PasswordHash)
	assert.Equal(t, []string{"editor"}, user.Roles)
	assert.Empty(t, user.Attributes)
}

func TestUserRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, driven.ErrUserNotFound)
}

func TestUserRepo_ListAllOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.DirectoryUser{Username: "carol", PasswordHash: "h"}))
	require.NoError(t, repo.Upsert(ctx, model.DirectoryUser{Username: "alice", PasswordHash: "h"}))

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "carol", users[1].Username)
}
