package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserDirectory defines the driven port for user account lookup and storage.
// GetByUsername returns ErrUserNotFound if the user does not exist.
type UserDirectory interface {
	Upsert(ctx context.Context, user model.DirectoryUser) error
	GetByUsername(ctx context.Context, username string) (*model.DirectoryUser, error)
	ListAll(ctx context.Context) ([]model.DirectoryUser, error)
}
